package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vvka-141/csvlab/internal/cli"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(csvlab.ExitPanic)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(csvlab.ExitCodeForError(err))
	}
}

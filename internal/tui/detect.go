package tui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// Mode says whether a human is watching the terminal.
type Mode int

const (
	ModeNonInteractive Mode = iota
	ModeInteractive
)

// Environment is what mode detection looks at. Tests replace both funcs.
type Environment struct {
	Getenv     func(key string) string
	IsTerminal func(fd int) bool
}

// SystemEnvironment reads the process environment and real file descriptors.
func SystemEnvironment() Environment {
	return Environment{Getenv: os.Getenv, IsTerminal: term.IsTerminal}
}

// Mode is non-interactive when CSVLAB_NON_INTERACTIVE is truthy, CI or
// NO_COLOR is set, or any of fds is not a terminal.
func (e Environment) Mode(fds ...uintptr) Mode {
	switch strings.ToLower(e.Getenv("CSVLAB_NON_INTERACTIVE")) {
	case "1", "true", "yes":
		return ModeNonInteractive
	}
	if e.Getenv("CI") != "" || e.Getenv("NO_COLOR") != "" {
		return ModeNonInteractive
	}
	for _, fd := range fds {
		if !e.IsTerminal(int(fd)) {
			return ModeNonInteractive
		}
	}
	return ModeInteractive
}

// DetectMode checks stdin and stdout, which prompts and forms need.
func DetectMode() Mode {
	return SystemEnvironment().Mode(os.Stdin.Fd(), os.Stdout.Fd())
}

// DetectOutputMode checks only f, for displays that never read input.
func DetectOutputMode(f *os.File) Mode {
	return SystemEnvironment().Mode(f.Fd())
}

// IsInteractive reports whether DetectMode finds a human at the terminal.
func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}

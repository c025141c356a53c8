package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// InteractiveApprover implements the Approver interface for console-based
// interactive confirmation. It prompts the user to type the schema name
// to confirm destructive operations.
type InteractiveApprover struct {
	verbose bool
	input   io.Reader
	output  io.Writer
}

// NewInteractiveApprover creates a new InteractiveApprover reading stdin.
func NewInteractiveApprover(verbose bool) csvlab.Approver {
	return &InteractiveApprover{
		verbose: verbose,
		input:   os.Stdin,
		output:  os.Stderr,
	}
}

// RequestApproval prompts the user to type the schema name to confirm.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, schemaName string) (bool, error) {
	fmt.Fprintf(a.output, "\n⚠️  WARNING: You are about to DROP the schema '%s'\n", schemaName)
	fmt.Fprintln(a.output, "This will permanently delete every table and row in it!")
	fmt.Fprintf(a.output, "\nTo confirm, type the schema name '%s' and press Enter: ", schemaName)

	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(a.input)
		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(input)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		if input == schemaName {
			fmt.Fprintln(a.output, "✓ Confirmed. Proceeding with schema drop...")
			return true, nil
		}
		fmt.Fprintf(a.output, "✗ Input '%s' does not match schema name '%s'. Operation cancelled.\n", input, schemaName)
		return false, nil
	}
}

var _ csvlab.Approver = (*InteractiveApprover)(nil)

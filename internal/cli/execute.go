package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vvka-141/csvlab/internal/checksum"
	"github.com/vvka-141/csvlab/internal/db"
	"github.com/vvka-141/csvlab/internal/files/scanner"
	"github.com/vvka-141/csvlab/internal/logging"
	"github.com/vvka-141/csvlab/internal/services"
	"github.com/vvka-141/csvlab/internal/tui"
	"github.com/vvka-141/csvlab/internal/ui"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// newRunner wires the runner with its production dependencies.
// force selects the countdown approver over the interactive prompt.
func newRunner(verbose, force bool) *services.Runner {
	var approver csvlab.Approver
	if force {
		approver = ui.NewForcedApprover(verbose)
	} else {
		approver = ui.NewInteractiveApprover(verbose)
	}
	return services.NewRunner(
		db.NewConnector,
		approver,
		logging.NewConsoleLogger(verbose),
		scanner.NewScanner(checksum.New()),
	)
}

// commandContext bounds a command by timeout (zero means none) and cancels
// it on SIGINT or SIGTERM.
func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// progressReporter returns nil unless --progress was given.
func progressReporter(enabled bool, cancel context.CancelFunc) csvlab.ProgressReporter {
	if !enabled {
		return nil
	}
	return tui.NewProgressReporter(tui.DetectOutputMode(os.Stderr), os.Stderr, cancel)
}

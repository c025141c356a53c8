package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/csvlab/internal/config"
	"github.com/vvka-141/csvlab/internal/tui"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config [source_dir]",
		Short: "Interactively create or edit csvlab.yaml",
		Long: `Config opens a form to create or edit csvlab.yaml in source_dir (default:
the current directory). The form covers the connection, the three schema names
and the timeout; other settings already in the file are kept.

This command requires an interactive terminal. For non-interactive use,
write csvlab.yaml by hand or use environment variables.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeDirectories,
		RunE:              runConfig,
	}
}

func runConfig(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	if !tui.IsInteractive() {
		return fmt.Errorf("config command requires an interactive terminal\n"+
			"For non-interactive use, write %s by hand or use environment variables", csvlab.ConfigFileName)
	}

	existing, err := config.Load(targetDir)
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		existing = nil
	case err != nil:
		return fmt.Errorf("failed to load %s: %w", csvlab.ConfigFileName, err)
	default:
		fmt.Fprintf(os.Stderr, "Found existing %s\n", csvlab.ConfigFileName)
	}

	updated, err := tui.RunConfigForm(existing)
	if err != nil {
		return err
	}
	if updated == nil {
		fmt.Fprintln(os.Stderr, "Cancelled.")
		return nil
	}
	if existing != nil && !tui.Confirm(os.Stdin, os.Stderr, "Overwrite existing configuration?") {
		fmt.Fprintln(os.Stderr, "Cancelled.")
		return nil
	}

	path, err := saveProjectConfig(targetDir, updated)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "\n✓ Configuration saved to %s\n", path)
	return nil
}

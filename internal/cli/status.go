package cli

import (
	"github.com/spf13/cobra"
	"github.com/vvka-141/csvlab/internal/tui"
)

type statusFlagValues struct {
	conn    connectionFlags
	schemas schemaFlags
}

func newStatusCmd() *cobra.Command {
	var f statusFlagValues
	cmd := &cobra.Command{
		Use:   "status <source_dir>",
		Short: "Show row counts and populate progress",
		Long: `Status prints the row count of every table in the main, lab and experiment
schemas, then the populate state of each listed file:

  done      sessions were populated from the file
  pending   no session references the file yet
  changed   populated, but the file content differs from when it was listed
  missing   the file no longer exists

CSV files in source_dir that are not listed yet, reserved jobs and recorded
job failures are shown when there are any.

Example:
  csvlab status ./data -d tutorial`,
		Args:              RequireSourceDir,
		ValidArgsFunction: completeDirectories,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, args[0], &f)
		},
	}
	f.conn.bind(cmd)
	f.schemas.bind(cmd)
	return cmd
}

func runStatus(cmd *cobra.Command, sourcePath string, f *statusFlagValues) error {
	verbose := getVerboseFlag(cmd)

	cfg, err := buildRunConfig(cmd, sourcePath, &f.conn, &f.schemas, verbose)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cfg.Timeout)
	defer cancel()

	report, err := newRunner(verbose, false).Status(ctx, cfg)
	if err != nil {
		return err
	}
	tui.RenderStatus(cmd.OutOrStdout(), report)
	return nil
}

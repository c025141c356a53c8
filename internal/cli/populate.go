package cli

import (
	"github.com/spf13/cobra"
)

type populateFlagValues struct {
	conn     connectionFlags
	schemas  schemaFlags
	populate populateFlags
}

func newPopulateCmd() *cobra.Command {
	var f populateFlagValues
	cmd := &cobra.Command{
		Use:   "populate <source_dir>",
		Short: "Populate the session table from listed files",
		Long: `Populate runs the make step for every file in file_list that no session
row references yet. Each file is one transaction: its users and subjects are
inserted with duplicates ignored, then one session row per CSV line.

The main schema must have been declared (see 'csvlab declare' or 'csvlab run').
Files added to source_dir after the last declare are not listed yet.

Examples:
  csvlab populate ./data -d tutorial
  csvlab populate ./data -d tutorial --order random --max-calls 10
  csvlab populate ./data -d tutorial --reserve-jobs --suppress-errors`,
		Args:              RequireSourceDir,
		ValidArgsFunction: completeDirectories,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPopulate(cmd, args[0], &f)
		},
	}
	f.conn.bind(cmd)
	f.schemas.bind(cmd)
	f.populate.bind(cmd)
	return cmd
}

func runPopulate(cmd *cobra.Command, sourcePath string, f *populateFlagValues) error {
	verbose := getVerboseFlag(cmd)

	cfg, err := buildRunConfig(cmd, sourcePath, &f.conn, &f.schemas, verbose)
	if err != nil {
		return err
	}
	if cfg.Populate, err = f.populate.apply(cmd, cfg.Populate); err != nil {
		return err
	}
	cfg.SkipCopy = true

	ctx, cancel := commandContext(cfg.Timeout)
	defer cancel()
	cfg.Populate.Progress = progressReporter(f.populate.progress, cancel)

	_, err = newRunner(verbose, false).Populate(ctx, cfg)
	return err
}

package cli

import (
	"github.com/spf13/cobra"
)

type runFlagValues struct {
	conn                  connectionFlags
	schemas               schemaFlags
	populate              populateFlags
	skipCopy              bool
	declareTargets        bool
	skipDuplicateSessions bool
}

func newRunCmd() *cobra.Command {
	var f runFlagValues
	cmd := &cobra.Command{
		Use:   "run <source_dir>",
		Short: "Run the whole tutorial: declare, populate, copy",
		Long: `Run executes every step of the tutorial against the CSV files in source_dir.

The run command:
1. Declares the main schema (file_list, user, subject, session, jobs)
2. Lists new CSV files in file_list, skipping files already listed
3. Populates session from every listed file that has no sessions yet,
   one transaction per file
4. Copies users and subjects to the lab schema and sessions to the
   experiment schema

Arguments:
  source_dir    Directory holding the CSV files and an optional csvlab.yaml.
                Each file has the columns user_name, subject_name,
                session_date and session_result.

Examples:
  # Full run against the tutorial database
  csvlab run ./data -d tutorial

  # Rerun after adding files, tolerating sessions copied before
  csvlab run ./data -d tutorial --skip-duplicate-sessions

  # Populate only, keep going past bad files
  csvlab run ./data -d tutorial --skip-copy --suppress-errors`,
		Args:              RequireSourceDir,
		ValidArgsFunction: completeDirectories,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args[0], &f)
		},
	}

	f.conn.bind(cmd)
	f.schemas.bind(cmd)
	f.populate.bind(cmd)
	cmd.Flags().BoolVar(&f.skipCopy, "skip-copy", false, "Stop after populate")
	cmd.Flags().BoolVar(&f.declareTargets, "declare-targets", true,
		"Declare the lab and experiment schemas when they do not exist")
	cmd.Flags().BoolVar(&f.skipDuplicateSessions, "skip-duplicate-sessions", false,
		"Skip sessions already present in the experiment schema instead of failing")
	return cmd
}

func runRun(cmd *cobra.Command, sourcePath string, f *runFlagValues) error {
	verbose := getVerboseFlag(cmd)

	cfg, err := buildRunConfig(cmd, sourcePath, &f.conn, &f.schemas, verbose)
	if err != nil {
		return err
	}
	if cfg.Populate, err = f.populate.apply(cmd, cfg.Populate); err != nil {
		return err
	}
	cfg.SkipCopy = f.skipCopy
	cfg.DeclareTargets = f.declareTargets
	if cmd.Flags().Changed("skip-duplicate-sessions") {
		cfg.SkipDuplicateSessions = f.skipDuplicateSessions
	}

	ctx, cancel := commandContext(cfg.Timeout)
	defer cancel()
	cfg.Populate.Progress = progressReporter(f.populate.progress, cancel)

	_, err = newRunner(verbose, false).Run(ctx, cfg)
	return err
}

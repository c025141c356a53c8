package cli

import (
	"github.com/spf13/cobra"
)

type copyFlagValues struct {
	conn                  connectionFlags
	schemas               schemaFlags
	declareTargets        bool
	skipDuplicateSessions bool
}

func newCopyCmd() *cobra.Command {
	var f copyFlagValues
	cmd := &cobra.Command{
		Use:   "copy <source_dir>",
		Short: "Copy users, subjects and sessions into the target schemas",
		Long: `Copy inserts every user and subject of the main schema into the lab schema
and every session into the experiment schema, all in one transaction.

Users and subjects already present are skipped. Sessions already present fail
the copy unless --skip-duplicate-sessions is given. The experiment_file
attribute is dropped since the experiment schema does not have it.

Examples:
  csvlab copy ./data -d tutorial
  csvlab copy ./data -d tutorial --skip-duplicate-sessions`,
		Args:              RequireSourceDir,
		ValidArgsFunction: completeDirectories,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCopy(cmd, args[0], &f)
		},
	}
	f.conn.bind(cmd)
	f.schemas.bind(cmd)
	cmd.Flags().BoolVar(&f.declareTargets, "declare-targets", true,
		"Declare the lab and experiment schemas when they do not exist")
	cmd.Flags().BoolVar(&f.skipDuplicateSessions, "skip-duplicate-sessions", false,
		"Skip sessions already present in the experiment schema instead of failing")
	return cmd
}

func runCopy(cmd *cobra.Command, sourcePath string, f *copyFlagValues) error {
	verbose := getVerboseFlag(cmd)

	cfg, err := buildRunConfig(cmd, sourcePath, &f.conn, &f.schemas, verbose)
	if err != nil {
		return err
	}
	cfg.DeclareTargets = f.declareTargets
	if cmd.Flags().Changed("skip-duplicate-sessions") {
		cfg.SkipDuplicateSessions = f.skipDuplicateSessions
	}

	ctx, cancel := commandContext(cfg.Timeout)
	defer cancel()

	_, err = newRunner(verbose, false).Copy(ctx, cfg)
	return err
}

package cli

import (
	"github.com/spf13/cobra"
)

type dropFlagValues struct {
	conn   connectionFlags
	schema string
	force  bool
}

func newDropCmd() *cobra.Command {
	var f dropFlagValues
	cmd := &cobra.Command{
		Use:   "drop <source_dir> --schema <name>",
		Short: "Drop a schema with all its tables",
		Long: `Drop removes a schema and everything in it (DROP SCHEMA ... CASCADE).

You are asked to type the schema name to confirm. With --force a countdown
is shown instead and the drop proceeds when it ends.

Examples:
  csvlab drop ./data -d tutorial --schema tutorial_experiment1
  csvlab drop ./data -d tutorial --schema tutorial_lab --force`,
		Args:              RequireSourceDir,
		ValidArgsFunction: completeDirectories,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDrop(cmd, args[0], &f)
		},
	}
	f.conn.bind(cmd)
	cmd.Flags().StringVar(&f.schema, "schema", "", "Schema to drop")
	cmd.Flags().BoolVar(&f.force, "force", false,
		"Skip the interactive prompt; a countdown is shown instead\n"+
			"Use for CI/CD pipelines")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func runDrop(cmd *cobra.Command, sourcePath string, f *dropFlagValues) error {
	verbose := getVerboseFlag(cmd)

	cfg, err := buildRunConfig(cmd, sourcePath, &f.conn, nil, verbose)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cfg.Timeout)
	defer cancel()

	return newRunner(verbose, f.force).Drop(ctx, cfg, f.schema)
}

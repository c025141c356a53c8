package cli

import (
	"github.com/spf13/cobra"
	"github.com/vvka-141/csvlab/internal/schema"
)

type declareFlagValues struct {
	conn    connectionFlags
	schemas schemaFlags
	layout  string
}

func newDeclareCmd() *cobra.Command {
	var f declareFlagValues
	cmd := &cobra.Command{
		Use:   "declare <source_dir>",
		Short: "Declare one schema layout",
		Long: `Declare creates the tables of one layout if they do not exist yet.

Layouts:
  tutorial     file_list, user, subject, session and the jobs table in the
               main schema; new CSV files of source_dir are listed in file_list
  lab          user and subject in the lab schema
  experiment   session in the experiment schema, referencing the lab schema

Examples:
  csvlab declare ./data -d tutorial
  csvlab declare ./data -d tutorial --layout lab --lab-schema my_lab`,
		Args:              RequireSourceDir,
		ValidArgsFunction: completeDirectories,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeclare(cmd, args[0], &f)
		},
	}
	f.conn.bind(cmd)
	f.schemas.bind(cmd)
	cmd.Flags().StringVar(&f.layout, "layout", string(schema.LayoutTutorial), "Layout to declare: tutorial|lab|experiment")
	_ = cmd.RegisterFlagCompletionFunc("layout", completeLayouts)
	return cmd
}

func runDeclare(cmd *cobra.Command, sourcePath string, f *declareFlagValues) error {
	verbose := getVerboseFlag(cmd)

	layout, err := schema.ParseLayout(f.layout)
	if err != nil {
		return err
	}
	cfg, err := buildRunConfig(cmd, sourcePath, &f.conn, &f.schemas, verbose)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cfg.Timeout)
	defer cancel()

	_, err = newRunner(verbose, false).Declare(ctx, cfg, layout)
	return err
}

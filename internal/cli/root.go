package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const rootLong = `csvlab lists the CSV session files of a directory in a lookup table,
populates a computed session table from them, and copies the results into a
lab schema (users, subjects) and an experiment schema (sessions).

Every step is idempotent: rerunning picks up only files not populated yet.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or flags
  11 - Database connection failed
  12 - User denied drop approval
  13 - Populating the session table failed
  14 - Copying into the lab or experiment schema failed
  15 - Schema or table does not exist
  16 - Source directory has no readable CSV files or a file is malformed`

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "csvlab",
		Short:        "Populate and copy CSV session data across PostgreSQL schemas",
		Long:         rootLong,
		SilenceUsage: true,
	}
	// -h is taken by --host.
	root.PersistentFlags().Bool("help", false, "Help for csvlab")
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")

	root.AddCommand(
		newRunCmd(),
		newDeclareCmd(),
		newPopulateCmd(),
		newCopyCmd(),
		newStatusCmd(),
		newDropCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

package csvlab

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess          = 0  // Command completed successfully
	ExitGeneralError     = 1  // Unknown or unclassified error
	ExitUsageError       = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic            = 3  // Internal panic (unexpected crash)
	ExitConfigError      = 10 // Invalid configuration or flags
	ExitConnectionError  = 11 // Failed to connect to database
	ExitApprovalDenied   = 12 // User denied drop approval
	ExitPopulateFailed   = 13 // Populating the computed table failed
	ExitCopyFailed       = 14 // Copying rows into a target schema failed
	ExitSchemaMissing    = 15 // Schema or table referenced by name does not exist
	ExitInvalidSource    = 16 // CSV source file unreadable or malformed
)

const (
	// DefaultMainSchema is the schema holding file_list, user, subject and session.
	DefaultMainSchema = "tutorial_multischem"

	// DefaultLabSchema receives copies of users and subjects.
	DefaultLabSchema = "tutorial_lab"

	// DefaultExperimentSchema receives copies of sessions.
	DefaultExperimentSchema = "tutorial_experiment1"

	// SourceFileExtension selects files from the source directory (case-sensitive).
	SourceFileExtension = ".csv"

	// DefaultTimeout bounds a whole command invocation.
	DefaultTimeout = 3 * time.Minute

	// DefaultForceApprovalCountdown is the countdown duration before a forced drop proceeds.
	DefaultForceApprovalCountdown = 5 * time.Second

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultManagementDB is the database used when none is configured.
	DefaultManagementDB = "postgres"

	// ConfigFileName is the project configuration file looked up in the source directory.
	ConfigFileName = "csvlab.yaml"
)

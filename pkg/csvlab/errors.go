package csvlab

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	res, err := populator.Populate(ctx, schema, opts)
//	if errors.Is(err, csvlab.ErrInvalidRecord) {
//	    // fix the CSV file and rerun
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrApprovalDenied indicates the user denied approval for a destructive operation.
	ErrApprovalDenied = errors.New("approval denied")

	// ErrSchemaNotFound indicates a schema referenced by name does not exist.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrTableNotFound indicates a table is missing from an existing schema.
	ErrTableNotFound = errors.New("table not found")

	// ErrDuplicateKey indicates an insert collided with an existing primary key.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrMissingAttribute indicates a target table requires a column the source lacks.
	ErrMissingAttribute = errors.New("missing attribute")

	// ErrUnknownAttribute indicates a source column has no counterpart in the target table.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrInvalidRecord indicates a CSV file or one of its rows is malformed.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrNoSourceFiles indicates the source directory holds no CSV files.
	ErrNoSourceFiles = errors.New("no source files")

	// ErrPopulateFailed indicates one or more keys failed to populate.
	ErrPopulateFailed = errors.New("populate failed")

	// ErrCopyFailed indicates copying rows into a target schema failed.
	ErrCopyFailed = errors.New("copy failed")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrApprovalDenied):
		return ExitApprovalDenied
	case errors.Is(err, ErrSchemaNotFound), errors.Is(err, ErrTableNotFound):
		return ExitSchemaMissing
	case errors.Is(err, ErrInvalidRecord), errors.Is(err, ErrNoSourceFiles):
		return ExitInvalidSource
	case errors.Is(err, ErrCopyFailed):
		return ExitCopyFailed
	case errors.Is(err, ErrPopulateFailed):
		return ExitPopulateFailed
	}

	errStr := err.Error()
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	if isUsageError(errStr) {
		return ExitUsageError
	}

	return ExitGeneralError
}

// isUsageError recognizes the argument and flag errors produced by cobra.
func isUsageError(msg string) bool {
	for _, p := range []string{
		"accepts ",
		"missing required argument",
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"invalid argument",
		"flag needs an argument",
		"required flag",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

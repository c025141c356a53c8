// Package retry provides retry logic with exponential backoff for transient
// PostgreSQL failures, plus SQLSTATE helpers for the integrity errors csvlab
// handles explicitly (duplicate keys, foreign keys).
//
// # Example Usage
//
//	executor := retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), retry.NewExponentialBackoff(3))
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return populateOneFile(ctx, key)
//	})
//
// Executor instances are safe for concurrent use. WithOnRetry returns a copy.
package retry

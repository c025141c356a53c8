package csvlab

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Logger receives progress and diagnostics. Verbose output is shown only
// with --verbose. Implementations must be safe for concurrent use.
type Logger interface {
	Verbose(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Connector opens a pool for one resolved ConnectionConfig. Connectors that
// hold resources beyond the pool also implement io.Closer; callers close
// the pool first and the connector second.
type Connector interface {
	Connect(ctx context.Context) (*pgxpool.Pool, error)
}

// Approver confirms that a schema may be dropped together with every table
// and row in it. A false result without an error means the user declined.
type Approver interface {
	RequestApproval(ctx context.Context, schemaName string) (bool, error)
}

// ErrorClassifier reports whether an error is worth retrying.
type ErrorClassifier interface {
	IsTransient(err error) bool
}

// BackoffStrategy spaces retries. attempt is zero-based; MaxAttempts returns
// 0 for no retries.
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
	MaxAttempts() int
}

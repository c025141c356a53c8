package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/csvlab/internal/retry"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// Connection pool configuration constants
const (
	// DefaultMaxConns bounds the pool. csvlab's main flow is sequential; the
	// extra connections serve job reservation and status queries.
	DefaultMaxConns = 4

	// DefaultMinConns maintains at least one connection in the pool.
	DefaultMinConns = 1

	// DefaultMaxConnIdleTime keeps connections alive through long populate runs.
	DefaultMaxConnIdleTime = 30 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
}

// StandardConnector implements the Connector interface for password and
// client-certificate authentication with automatic retry on transient failures.
type StandardConnector struct {
	config        *csvlab.ConnectionConfig
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
// Retry behavior uses csvlab defaults: DefaultRetryMaxAttempts attempts,
// exponential backoff starting at DefaultRetryInitialDelay, max DefaultRetryMaxDelay.
func NewStandardConnector(config *csvlab.ConnectionConfig) *StandardConnector {
	return &StandardConnector{
		config:        config,
		retryExecutor: retry.NewDefaultExecutor(),
	}
}

// Connect establishes a connection pool using standard authentication with automatic retry.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	connStr := BuildConnectionString(c.config)

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		var err error
		pool, err = openPool(ctx, connStr, c.config)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// openPool parses connStr, opens a pool and pings it.
func openPool(ctx context.Context, connStr string, config *csvlab.ConnectionConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w: %w", csvlab.ErrInvalidConfig, err)
	}

	configurePool(poolConfig)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}
	return pool, nil
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod.
func NewConnector(config *csvlab.ConnectionConfig) (csvlab.Connector, error) {
	switch config.AuthMethod {
	case csvlab.AuthMethodStandard, csvlab.AuthMethodCertificate:
		return NewStandardConnector(config), nil
	case csvlab.AuthMethodAWSIAM:
		return newAWSConnector(config)
	case csvlab.AuthMethodGoogleIAM:
		return newGoogleConnector(config)
	case csvlab.AuthMethodAzureEntraID:
		return newAzureConnector(config)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, csvlab.ErrUnsupportedAuthMethod)
	}
}

// ConnectorFactory builds a Connector for a resolved configuration.
type ConnectorFactory func(config *csvlab.ConnectionConfig) (csvlab.Connector, error)

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
// The result always wraps csvlab.ErrConnectionFailed and the original error.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port
  - Firewall blocking the connection

Original error: %w: %w`, addr, host, port, csvlab.ErrConnectionFailed, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable

Original error: %w: %w`, host, csvlab.ErrConnectionFailed, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`password authentication failed for database "%s"

Possible causes:
  - Wrong password (check $PGPASSWORD or ~/.pgpass)
  - Wrong username

Original error: %w: %w`, database, csvlab.ErrConnectionFailed, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`database "%s" does not exist

To create it:
  createdb %s

Or pass --create-database to let csvlab create it.

Original error: %w: %w`, database, database, csvlab.ErrConnectionFailed, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets
  - Wrong host/port (server not listening)

Original error: %w: %w`, addr, csvlab.ErrConnectionFailed, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return fmt.Errorf(`SSL/TLS connection error

Possible causes:
  - Server requires SSL but --sslmode is wrong
  - Certificate verification failed (try --sslmode=require)
  - Client certificates missing (check --sslcert, --sslkey)

Original error: %w: %w`, csvlab.ErrConnectionFailed, err)

	case strings.Contains(errStr, "too many connections"):
		return fmt.Errorf(`too many connections to database "%s"

Possible causes:
  - max_connections limit reached in postgresql.conf
  - Other csvlab runs holding connections

Original error: %w: %w`, database, csvlab.ErrConnectionFailed, err)

	default:
		return fmt.Errorf("failed to connect to database: %w: %w", csvlab.ErrConnectionFailed, err)
	}
}

// newAWSConnector signs an RDS IAM token per connection attempt.
func newAWSConnector(config *csvlab.ConnectionConfig) (csvlab.Connector, error) {
	provider, err := newRDSTokenProvider(config.Host, config.Port, config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", csvlab.ErrInvalidConfig, err)
	}
	return NewTokenBasedConnector(config, newCachingTokenProvider(provider), "AWS IAM"), nil
}

// newGoogleConnector creates a GoogleCloudSQLConnector for Google Cloud SQL IAM authentication.
func newGoogleConnector(config *csvlab.ConnectionConfig) (csvlab.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", csvlab.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires username (-U): %w", csvlab.ErrInvalidConfig)
	}

	return NewGoogleCloudSQLConnector(config, config.GoogleInstance), nil
}

// newAzureConnector authenticates with an Entra ID access token.
func newAzureConnector(config *csvlab.ConnectionConfig) (csvlab.Connector, error) {
	provider, err := newEntraTokenProvider(config.AzureTenantID, config.AzureClientID, config.AzureClientSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", csvlab.ErrInvalidConfig, err)
	}
	return NewTokenBasedConnector(config, newCachingTokenProvider(provider), "Azure"), nil
}

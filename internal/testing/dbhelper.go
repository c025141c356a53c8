package testing

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/csvlab/internal/db/manager"
	"github.com/vvka-141/csvlab/internal/testinfra"
)

// TestConnEnvVar names the variable that points tests at an existing server.
const TestConnEnvVar = "CSVLAB_TEST_CONN"

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		ctx := context.Background()
		container, err := testinfra.StartPostgres(ctx)
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test database connection string.
// Priority: CSVLAB_TEST_CONN env var > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv(TestConnEnvVar); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("%s not set and Docker unavailable: %v", TestConnEnvVar, err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString for convenience.
// Returns the test connection string if available, otherwise skips the test.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// ForceApprover is a test approver that always approves.
type ForceApprover struct{}

// RequestApproval always returns true (auto-approves).
func (a *ForceApprover) RequestApproval(ctx context.Context, schemaName string) (bool, error) {
	return true, nil
}

// DenyApprover is a test approver that always refuses.
type DenyApprover struct{}

// RequestApproval always returns false.
func (a *DenyApprover) RequestApproval(ctx context.Context, schemaName string) (bool, error) {
	return false, nil
}

// GetTestPool creates a connection pool for connString.
// The pool is automatically closed when the test completes.
func GetTestPool(t *testing.T, connString string) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// UniqueSchemaName returns prefix plus a random suffix, safe to use as an
// unquoted identifier, so parallel tests never share schemas.
func UniqueSchemaName(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
}

// TestSchemas returns three fresh schema names and drops the schemas when the
// test completes. Dropping runs experiment first because it references lab.
func TestSchemas(t *testing.T, pool *pgxpool.Pool) (mainSchema, labSchema, experimentSchema string) {
	t.Helper()

	mainSchema = UniqueSchemaName("t_main")
	labSchema = UniqueSchemaName("t_lab")
	experimentSchema = UniqueSchemaName("t_exp")

	t.Cleanup(func() {
		ctx := context.Background()
		for _, s := range []string{experimentSchema, labSchema, mainSchema} {
			query := fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pgx.Identifier{s}.Sanitize())
			if _, err := pool.Exec(ctx, query); err != nil {
				t.Logf("Warning: Failed to drop schema %s: %v", s, err)
			}
		}
	})
	return mainSchema, labSchema, experimentSchema
}

// CreateTestDB creates a test database and drops it when the test completes.
func CreateTestDB(t *testing.T, pool *pgxpool.Pool, dbName string) {
	t.Helper()

	ctx := context.Background()
	if _, err := manager.New().CreateDatabase(ctx, pool, dbName); err != nil {
		t.Fatalf("Failed to create test database %s: %v", dbName, err)
	}

	t.Cleanup(func() {
		terminate := `
			SELECT pg_terminate_backend(pid)
			FROM pg_stat_activity
			WHERE datname = $1 AND pid <> pg_backend_pid()
		`
		if _, err := pool.Exec(ctx, terminate, dbName); err != nil {
			t.Logf("Warning: Failed to terminate connections to %s: %v", dbName, err)
		}
		query := fmt.Sprintf("DROP DATABASE IF EXISTS %s", pgx.Identifier{dbName}.Sanitize())
		if _, err := pool.Exec(ctx, query); err != nil {
			t.Logf("Warning: Failed to drop database %s: %v", dbName, err)
		}
	})
}

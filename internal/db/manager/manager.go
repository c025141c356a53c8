package manager

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

const (
	queryDatabaseExists = "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)"
	querySchemaExists   = "SELECT EXISTS(SELECT 1 FROM pg_namespace WHERE nspname = $1)"
)

// Manager implements schema and database lifecycle operations.
type Manager struct{}

// New creates a new Manager instance.
func New() *Manager {
	return &Manager{}
}

// SchemaExists checks if a schema exists in the connected database.
func (m *Manager) SchemaExists(ctx context.Context, q csvlab.Querier, schemaName string) (bool, error) {
	var exists bool
	if err := q.QueryRow(ctx, querySchemaExists, schemaName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check schema existence: %w", err)
	}
	return exists, nil
}

// RequireSchema returns an error wrapping csvlab.ErrSchemaNotFound when the schema is missing.
func (m *Manager) RequireSchema(ctx context.Context, q csvlab.Querier, schemaName string) error {
	exists, err := m.SchemaExists(ctx, q, schemaName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("schema %q: %w", schemaName, csvlab.ErrSchemaNotFound)
	}
	return nil
}

// CreateSchema creates the schema if it does not exist yet.
func (m *Manager) CreateSchema(ctx context.Context, q csvlab.Querier, schemaName string) error {
	query := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pgx.Identifier{schemaName}.Sanitize())
	if _, err := q.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema %q: %w", schemaName, err)
	}
	return nil
}

// DropSchema drops the schema and every object in it.
// Returns an error wrapping csvlab.ErrSchemaNotFound when it does not exist.
func (m *Manager) DropSchema(ctx context.Context, q csvlab.Querier, schemaName string) error {
	if err := m.RequireSchema(ctx, q, schemaName); err != nil {
		return err
	}
	query := fmt.Sprintf("DROP SCHEMA %s CASCADE", pgx.Identifier{schemaName}.Sanitize())
	if _, err := q.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to drop schema %q: %w", schemaName, err)
	}
	return nil
}

// DatabaseExists checks if a database exists. q must be connected to any
// database on the server, usually the management database.
func (m *Manager) DatabaseExists(ctx context.Context, q csvlab.Querier, dbName string) (bool, error) {
	var exists bool
	if err := q.QueryRow(ctx, queryDatabaseExists, dbName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return exists, nil
}

// CreateDatabase creates the database unless it already exists.
// CREATE DATABASE cannot run inside a transaction; pass a pool or connection.
func (m *Manager) CreateDatabase(ctx context.Context, q csvlab.Querier, dbName string) (bool, error) {
	exists, err := m.DatabaseExists(ctx, q, dbName)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	query := fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{dbName}.Sanitize())
	if _, err := q.Exec(ctx, query); err != nil {
		return false, fmt.Errorf("failed to create database %q: %w", dbName, err)
	}
	return true, nil
}

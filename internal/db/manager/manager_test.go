package manager_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/csvlab/internal/db/manager"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// mockQuerier is a test double for csvlab.Querier
type mockQuerier struct {
	exists   bool
	scanErr  error
	execErr  error
	executed []string
	queried  []string
}

func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.executed = append(m.executed, sql)
	return pgconn.CommandTag{}, m.execErr
}

func (m *mockQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.queried = append(m.queried, sql)
	return &mockRow{exists: m.exists, err: m.scanErr}
}

func (m *mockQuerier) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("not implemented")
}

type mockRow struct {
	exists bool
	err    error
}

func (r *mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*bool)) = r.exists
	return nil
}

func TestManager_CreateSchema_QuotesIdentifier(t *testing.T) {
	testCases := []struct {
		schema string
		want   string
	}{
		{"tutorial_lab", `CREATE SCHEMA IF NOT EXISTS "tutorial_lab"`},
		{"my schema", `CREATE SCHEMA IF NOT EXISTS "my schema"`},
		{`my"schema`, `CREATE SCHEMA IF NOT EXISTS "my""schema"`},
		{"my;schema", `CREATE SCHEMA IF NOT EXISTS "my;schema"`},
	}

	for _, tc := range testCases {
		t.Run(tc.schema, func(t *testing.T) {
			q := &mockQuerier{}
			require.NoError(t, manager.New().CreateSchema(context.Background(), q, tc.schema))
			assert.Equal(t, []string{tc.want}, q.executed)
		})
	}
}

func TestManager_DropSchema(t *testing.T) {
	q := &mockQuerier{exists: true}

	require.NoError(t, manager.New().DropSchema(context.Background(), q, "tutorial_lab"))
	assert.Equal(t, []string{`DROP SCHEMA "tutorial_lab" CASCADE`}, q.executed)
}

func TestManager_DropSchema_Missing(t *testing.T) {
	q := &mockQuerier{exists: false}

	err := manager.New().DropSchema(context.Background(), q, "nope")
	assert.ErrorIs(t, err, csvlab.ErrSchemaNotFound)
	assert.Empty(t, q.executed)
}

func TestManager_SchemaExists_ScanError(t *testing.T) {
	q := &mockQuerier{scanErr: errors.New("boom")}

	_, err := manager.New().SchemaExists(context.Background(), q, "x")
	assert.ErrorContains(t, err, "failed to check schema existence")
}

func TestManager_CreateDatabase(t *testing.T) {
	t.Run("creates when missing", func(t *testing.T) {
		q := &mockQuerier{exists: false}
		created, err := manager.New().CreateDatabase(context.Background(), q, "lab db")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, []string{`CREATE DATABASE "lab db"`}, q.executed)
	})

	t.Run("no-op when present", func(t *testing.T) {
		q := &mockQuerier{exists: true}
		created, err := manager.New().CreateDatabase(context.Background(), q, "lab")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Empty(t, q.executed)
	})

	t.Run("exec error", func(t *testing.T) {
		q := &mockQuerier{execErr: &pgconn.PgError{Code: "42501"}}
		_, err := manager.New().CreateDatabase(context.Background(), q, "lab")
		assert.ErrorContains(t, err, `failed to create database "lab"`)
	})
}

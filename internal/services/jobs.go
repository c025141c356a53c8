package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/vvka-141/csvlab/internal/schema"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// Job statuses stored in the jobs table.
const (
	StatusReserved = "reserved"
	StatusError    = "error"
	StatusIgnore   = "ignore"
)

// KeyHash identifies a key in the jobs table.
func KeyHash(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// JobError is a failed key recorded in the jobs table.
type JobError struct {
	Key       string
	Message   string
	RunID     uuid.UUID
	Host      string
	PID       int
	Timestamp time.Time
}

// Jobs reserves populate keys so concurrent runs never work on the same key.
// A row exists while a key is reserved or after it failed; completing a key
// deletes its row.
type Jobs struct {
	table *schema.TableInfo
	runID uuid.UUID
	host  string
	pid   int
}

// NewJobs binds the jobs table of a schema to a fresh run id.
func NewJobs(table *schema.TableInfo) *Jobs {
	host, _ := os.Hostname()
	return &Jobs{
		table: table,
		runID: uuid.New(),
		host:  host,
		pid:   os.Getpid(),
	}
}

// RunID identifies this process's reservations.
func (j *Jobs) RunID() uuid.UUID { return j.runID }

// Reserve claims key for tableName. It returns false when another run holds
// the key or a previous run recorded an error for it.
func (j *Jobs) Reserve(ctx context.Context, q csvlab.Querier, tableName, key string) (bool, error) {
	n, err := schema.Insert1(ctx, q, j.table, map[string]any{
		"table_name": tableName,
		"key_hash":   KeyHash(key),
		"status":     StatusReserved,
		"key":        key,
		"run_id":     j.runID,
		"host":       j.host,
		"pid":        j.pid,
	}, csvlab.InsertOptions{SkipDuplicates: true})
	if err != nil {
		return false, fmt.Errorf("reserve %s: %w", key, err)
	}
	return n == 1, nil
}

// Complete releases a reservation after its key was populated.
func (j *Jobs) Complete(ctx context.Context, q csvlab.Querier, tableName, key string) error {
	sql := fmt.Sprintf(`DELETE FROM %s WHERE table_name = $1 AND key_hash = $2`, j.table.Identifier())
	if _, err := q.Exec(ctx, sql, tableName, KeyHash(key)); err != nil {
		return fmt.Errorf("complete %s: %w", key, err)
	}
	return nil
}

// Fail turns a reservation into an error record.
func (j *Jobs) Fail(ctx context.Context, q csvlab.Querier, tableName, key string, cause error) error {
	sql := fmt.Sprintf(`UPDATE %s SET status = $3, error_message = $4, "timestamp" = now()
		WHERE table_name = $1 AND key_hash = $2`, j.table.Identifier())
	if _, err := q.Exec(ctx, sql, tableName, KeyHash(key), StatusError, cause.Error()); err != nil {
		return fmt.Errorf("record error for %s: %w", key, err)
	}
	return nil
}

// ClearErrors deletes error records for tableName so their keys become
// pending again. It returns the number of records removed.
func (j *Jobs) ClearErrors(ctx context.Context, q csvlab.Querier, tableName string) (int64, error) {
	sql := fmt.Sprintf(`DELETE FROM %s WHERE table_name = $1 AND status = $2`, j.table.Identifier())
	tag, err := q.Exec(ctx, sql, tableName, StatusError)
	if err != nil {
		return 0, fmt.Errorf("clear job errors: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Errors lists the error records of tableName, oldest first.
func (j *Jobs) Errors(ctx context.Context, q csvlab.Querier, tableName string) ([]JobError, error) {
	sql := fmt.Sprintf(`SELECT key, coalesce(error_message, ''), run_id, host, pid, "timestamp"
		FROM %s WHERE table_name = $1 AND status = $2 ORDER BY "timestamp", key`, j.table.Identifier())
	rows, err := q.Query(ctx, sql, tableName, StatusError)
	if err != nil {
		return nil, fmt.Errorf("list job errors: %w", err)
	}
	defer rows.Close()

	var out []JobError
	for rows.Next() {
		var e JobError
		if err := rows.Scan(&e.Key, &e.Message, &e.RunID, &e.Host, &e.PID, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountReserved returns how many keys of tableName are currently reserved.
func (j *Jobs) CountReserved(ctx context.Context, q csvlab.Querier, tableName string) (int64, error) {
	var n int64
	sql := fmt.Sprintf(`SELECT count(*) FROM %s WHERE table_name = $1 AND status = $2`, j.table.Identifier())
	if err := q.QueryRow(ctx, sql, tableName, StatusReserved).Scan(&n); err != nil {
		return 0, fmt.Errorf("count reserved jobs: %w", err)
	}
	return n, nil
}

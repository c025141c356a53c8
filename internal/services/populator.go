package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/csvlab/internal/csvsource"
	"github.com/vvka-141/csvlab/internal/files/filesystem"
	"github.com/vvka-141/csvlab/internal/retry"
	"github.com/vvka-141/csvlab/internal/schema"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// tutorialTables are the main schema tables the populate step touches.
type tutorialTables struct {
	fileList *schema.TableInfo
	user     *schema.TableInfo
	subject  *schema.TableInfo
	session  *schema.TableInfo
	jobs     *schema.TableInfo // nil when the schema has no jobs table
}

func lookupTutorialTables(mod *schema.Module) (tutorialTables, error) {
	var t tutorialTables
	var errs []error
	for _, b := range []struct {
		name string
		dst  **schema.TableInfo
	}{
		{schema.TableFileList, &t.fileList},
		{schema.TableUser, &t.user},
		{schema.TableSubject, &t.subject},
		{schema.TableSession, &t.session},
	} {
		tbl, err := mod.Table(b.name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*b.dst = tbl
	}
	if err := errors.Join(errs...); err != nil {
		return tutorialTables{}, err
	}
	t.jobs, _ = mod.Table(schema.TableJobs)
	return t, nil
}

// errAlreadyPopulated rolls back a make call whose key gained session rows
// after the pending keys were listed.
var errAlreadyPopulated = errors.New("key already populated")

// makeCounts are the rows one make call inserted.
type makeCounts struct {
	users, subjects, sessions int64
}

// Populator fills the computed session table from the files listed in file_list.
// Thread-Safety: NOT safe for concurrent Populate calls on the same instance;
// concurrent processes coordinate through the jobs table instead.
type Populator struct {
	fs            filesystem.FileSystemProvider
	logger        csvlab.Logger
	retryExecutor *retry.Executor
	shuffle       func(keys []string)
}

// NewPopulator creates a Populator reading CSV files through fs.
// Panics if fs or logger is nil.
func NewPopulator(fs filesystem.FileSystemProvider, logger csvlab.Logger) *Populator {
	if fs == nil {
		panic("fs cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	p := &Populator{
		fs:      fs,
		logger:  logger,
		shuffle: func(keys []string) { rand.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] }) },
	}
	p.retryExecutor = retry.NewDefaultExecutor().WithOnRetry(func(attempt int, err error, delay time.Duration) {
		p.logger.Verbose("Transient error, retrying in %v (attempt %d): %v", delay, attempt+1, err)
	})
	return p
}

// PendingKeys returns the file_list keys no session row references yet, ascending.
func PendingKeys(ctx context.Context, q csvlab.Querier, fileList, session *schema.TableInfo) ([]string, error) {
	sql := fmt.Sprintf(queryPendingKeys, fileList.Identifier(), session.Identifier())
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to list pending keys: %w", err)
	}
	return keys, nil
}

// orderKeys applies order and the max-calls cap to ascending keys.
func (p *Populator) orderKeys(keys []string, opts csvlab.PopulateOptions) []string {
	switch opts.Order {
	case csvlab.OrderReverse:
		slices.Reverse(keys)
	case csvlab.OrderRandom:
		p.shuffle(keys)
	}
	if opts.MaxCalls > 0 && len(keys) > opts.MaxCalls {
		keys = keys[:opts.MaxCalls]
	}
	return keys
}

// Populate runs the make step for every pending key of mod's session table.
//
// Each key is one transaction: the CSV file is read, each row's user and
// subject are inserted with duplicates ignored, then its session row is
// inserted with the file key. Transient database errors retry the key.
//
// Without SuppressErrors the first failing key stops the call; the returned
// result still counts the keys populated before it. With SuppressErrors the
// failures are collected in the result and the returned error is nil.
func (p *Populator) Populate(ctx context.Context, q csvlab.Querier, mod *schema.Module, opts csvlab.PopulateOptions) (csvlab.PopulateResult, error) {
	var result csvlab.PopulateResult

	if err := opts.Validate(); err != nil {
		return result, err
	}
	tables, err := lookupTutorialTables(mod)
	if err != nil {
		return result, err
	}

	var jobs *Jobs
	if opts.ReserveJobs {
		if tables.jobs == nil {
			_, err := mod.Table(schema.TableJobs)
			return result, fmt.Errorf("reserve jobs: %w", err)
		}
		jobs = NewJobs(tables.jobs)
		result.RunID = jobs.RunID()
		if opts.RetryErrors {
			n, err := jobs.ClearErrors(ctx, q, tables.session.Name)
			if err != nil {
				return result, err
			}
			p.logger.Verbose("Cleared %d job error(s)", n)
		}
	}

	keys, err := PendingKeys(ctx, q, tables.fileList, tables.session)
	if err != nil {
		return result, err
	}
	result.Pending = len(keys)
	keys = p.orderKeys(keys, opts)

	progress := opts.Progress
	if progress == nil {
		progress = csvlab.NopProgress{}
	}
	progress.Start(len(keys))
	defer progress.Finish()

	p.logger.Verbose("Populating %s: %d pending, %d to process", tables.session, result.Pending, len(keys))

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if jobs != nil {
			reserved, err := jobs.Reserve(ctx, q, tables.session.Name, key)
			if err != nil {
				return result, err
			}
			if !reserved {
				p.logger.Verbose("Skipping %s: reserved by another run or failed before", key)
				result.Reserved++
				progress.Skip(key)
				continue
			}
		}

		counts, makeErr := p.populateKey(ctx, q, tables, key)

		// Job rows are updated even after ctx is cancelled so an interrupted
		// key is recorded as an error instead of staying reserved.
		jobCtx := context.WithoutCancel(ctx)

		if errors.Is(makeErr, errAlreadyPopulated) {
			if jobs != nil {
				if err := jobs.Complete(jobCtx, q, tables.session.Name, key); err != nil {
					return result, err
				}
			}
			p.logger.Verbose("Skipping %s: populated by another run", key)
			result.Skipped++
			progress.Skip(key)
			continue
		}
		progress.Advance(key, makeErr)

		if makeErr == nil {
			if jobs != nil {
				if err := jobs.Complete(jobCtx, q, tables.session.Name, key); err != nil {
					return result, err
				}
			}
			result.Populated++
			result.Users += counts.users
			result.Subjects += counts.subjects
			result.Sessions += counts.sessions
			p.logger.Verbose("✓ %s: %d session(s)", key, counts.sessions)
			continue
		}

		if jobs != nil {
			if err := jobs.Fail(jobCtx, q, tables.session.Name, key, makeErr); err != nil {
				p.logger.Error("%v", err)
			}
		}
		if !opts.SuppressErrors {
			return result, fmt.Errorf("populate %s: %w: %w", key, csvlab.ErrPopulateFailed, makeErr)
		}
		p.logger.Error("%s: %v", key, makeErr)
		result.Errors = append(result.Errors, csvlab.KeyError{Key: key, Err: makeErr})
	}

	return result, nil
}

// populateKey reads the key's file and runs its make call in a transaction,
// retrying the whole transaction on transient errors. A key that has session
// rows by the time the transaction starts returns errAlreadyPopulated.
func (p *Populator) populateKey(ctx context.Context, q csvlab.Querier, tables tutorialTables, key string) (makeCounts, error) {
	records, err := csvsource.ReadFile(p.fs, key)
	if err != nil {
		return makeCounts{}, err
	}

	var counts makeCounts
	err = p.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		return pgx.BeginFunc(ctx, q, func(tx pgx.Tx) error {
			var done bool
			sql := fmt.Sprintf(queryKeyPopulated, tables.session.Identifier())
			if err := tx.QueryRow(ctx, sql, key).Scan(&done); err != nil {
				return fmt.Errorf("failed to check %s: %w", key, err)
			}
			if done {
				return errAlreadyPopulated
			}
			var err error
			counts, err = makeSessions(ctx, tx, tables, key, records)
			return err
		})
	})
	return counts, err
}

// makeSessions inserts the rows of one file inside tx.
func makeSessions(ctx context.Context, tx pgx.Tx, tables tutorialTables, key string, records []csvlab.SessionRecord) (makeCounts, error) {
	var counts makeCounts
	for _, rec := range records {
		n, err := insertIgnoringDuplicate(ctx, tx, tables.user, map[string]any{schema.ColUserName: rec.UserName})
		if err != nil {
			return counts, fmt.Errorf("line %d: %w", rec.Line, err)
		}
		counts.users += n

		n, err = insertIgnoringDuplicate(ctx, tx, tables.subject, map[string]any{schema.ColSubjectName: rec.SubjectName})
		if err != nil {
			return counts, fmt.Errorf("line %d: %w", rec.Line, err)
		}
		counts.subjects += n

		n, err = schema.Insert1(ctx, tx, tables.session, map[string]any{
			schema.ColUserName:       rec.UserName,
			schema.ColSubjectName:    rec.SubjectName,
			schema.ColSessionDate:    rec.SessionDate,
			schema.ColSessionResult:  rec.SessionResult,
			schema.ColExperimentFile: key,
		}, csvlab.InsertOptions{})
		if err != nil {
			return counts, fmt.Errorf("line %d: %w", rec.Line, err)
		}
		counts.sessions += n
	}
	return counts, nil
}

// insertIgnoringDuplicate inserts row inside a savepoint so that a unique
// violation leaves the enclosing transaction usable. Only unique violations
// are ignored; every other error is returned.
func insertIgnoringDuplicate(ctx context.Context, tx pgx.Tx, target *schema.TableInfo, row map[string]any) (int64, error) {
	var n int64
	err := pgx.BeginFunc(ctx, tx, func(sp pgx.Tx) error {
		var err error
		n, err = schema.Insert1(ctx, sp, target, row, csvlab.InsertOptions{})
		return err
	})
	if err != nil {
		if retry.IsDuplicateKey(err) {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vvka-141/csvlab/internal/retry"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// planColumns picks the columns an insert writes, in target order.
// Source columns the target lacks fail with ErrUnknownAttribute unless
// IgnoreExtraFields is set. Required target columns the source lacks fail
// with ErrMissingAttribute.
func planColumns(target *TableInfo, sourceCols []string, opts csvlab.InsertOptions) ([]string, error) {
	inSource := make(map[string]bool, len(sourceCols))
	var errs []error
	for _, name := range sourceCols {
		inSource[name] = true
		if _, ok := target.Column(name); !ok && !opts.IgnoreExtraFields {
			errs = append(errs, fmt.Errorf("%s has no attribute %q: %w", target, name, csvlab.ErrUnknownAttribute))
		}
	}

	var cols []string
	for _, c := range target.Columns {
		switch {
		case inSource[c.Name]:
			cols = append(cols, c.Name)
		case c.Required():
			errs = append(errs, fmt.Errorf("%s requires attribute %q: %w", target, c.Name, csvlab.ErrMissingAttribute))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%s: no attributes to insert: %w", target, csvlab.ErrMissingAttribute)
	}
	return cols, nil
}

func conflictClause(opts csvlab.InsertOptions) string {
	if opts.SkipDuplicates {
		return " ON CONFLICT DO NOTHING"
	}
	return ""
}

func wrapInsertError(target *TableInfo, err error) error {
	if retry.IsDuplicateKey(err) {
		return fmt.Errorf("insert into %s: %w: %w", target, csvlab.ErrDuplicateKey, err)
	}
	return fmt.Errorf("insert into %s: %w", target, err)
}

// Insert1 inserts a single row given as attribute name to value.
// It returns the number of rows written: 0 when a duplicate was skipped.
func Insert1(ctx context.Context, q csvlab.Querier, target *TableInfo, row map[string]any, opts csvlab.InsertOptions) (int64, error) {
	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	sort.Strings(names)
	cols, err := planColumns(target, names, opts)
	if err != nil {
		return 0, err
	}

	args := make([]any, len(cols))
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		args[i] = row[c]
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)%s",
		target.Identifier(), quoteIdents(cols), strings.Join(placeholders, ", "), conflictClause(opts))

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, wrapInsertError(target, err)
	}
	return tag.RowsAffected(), nil
}

// InsertFrom copies every row of source into target with a single
// INSERT ... SELECT, so both tables must live in the same database.
func InsertFrom(ctx context.Context, q csvlab.Querier, target, source *TableInfo, opts csvlab.InsertOptions) (int64, error) {
	cols, err := planColumns(target, source.ColumnNames(), opts)
	if err != nil {
		return 0, err
	}

	list := quoteIdents(cols)
	sql := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s%s",
		target.Identifier(), list, list, source.Identifier(), conflictClause(opts))

	tag, err := q.Exec(ctx, sql)
	if err != nil {
		return 0, wrapInsertError(target, err)
	}
	return tag.RowsAffected(), nil
}

// Count returns the number of rows in t.
func Count(ctx context.Context, q csvlab.Querier, t *TableInfo) (int64, error) {
	var n int64
	if err := q.QueryRow(ctx, "SELECT count(*) FROM "+t.Identifier()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t, err)
	}
	return n, nil
}

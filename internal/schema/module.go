package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/csvlab/internal/db/manager"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// ColumnInfo describes one column of an existing table.
type ColumnInfo struct {
	Name       string
	DataType   string
	Nullable   bool
	HasDefault bool
}

// Required reports whether an insert must supply the column.
func (c ColumnInfo) Required() bool {
	return !c.Nullable && !c.HasDefault
}

// TableInfo describes a table as inserts see it.
type TableInfo struct {
	Schema     string
	Name       string
	Columns    []ColumnInfo
	PrimaryKey []string
}

// Identifier returns the sanitized, schema-qualified table name.
func (t *TableInfo) Identifier() string {
	return pgx.Identifier{t.Schema, t.Name}.Sanitize()
}

// String returns schema.table for messages.
func (t *TableInfo) String() string {
	return t.Schema + "." + t.Name
}

// Column looks up a column by name.
func (t *TableInfo) Column(name string) (ColumnInfo, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnInfo{}, false
}

// ColumnNames returns column names in table order.
func (t *TableInfo) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Module is an existing schema opened by name. Its tables are discovered
// from information_schema when it is opened.
type Module struct {
	Name   string
	tables map[string]*TableInfo
}

// OpenModule reads the tables of schemaName.
// Returns an error wrapping csvlab.ErrSchemaNotFound if the schema is missing.
func OpenModule(ctx context.Context, q csvlab.Querier, schemaName string) (*Module, error) {
	if err := manager.New().RequireSchema(ctx, q, schemaName); err != nil {
		return nil, err
	}

	m := &Module{Name: schemaName, tables: make(map[string]*TableInfo)}

	if err := forEachRow(ctx, q, queryTables, schemaName, func(rows pgx.Rows) error {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		m.tables[name] = &TableInfo{Schema: schemaName, Name: name}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to list tables of %s: %w", schemaName, err)
	}

	if err := forEachRow(ctx, q, queryColumns, schemaName, func(rows pgx.Rows) error {
		var table string
		var col ColumnInfo
		if err := rows.Scan(&table, &col.Name, &col.DataType, &col.Nullable, &col.HasDefault); err != nil {
			return err
		}
		if t, ok := m.tables[table]; ok {
			t.Columns = append(t.Columns, col)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", schemaName, err)
	}

	if err := forEachRow(ctx, q, queryPrimaryKeys, schemaName, func(rows pgx.Rows) error {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return err
		}
		if t, ok := m.tables[table]; ok {
			t.PrimaryKey = append(t.PrimaryKey, column)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to list primary keys of %s: %w", schemaName, err)
	}

	return m, nil
}

func forEachRow(ctx context.Context, q csvlab.Querier, sql, arg string, fn func(pgx.Rows) error) error {
	rows, err := q.Query(ctx, sql, arg)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// NewModule builds a module from known tables without touching the database.
func NewModule(schemaName string, tables ...*TableInfo) *Module {
	m := &Module{Name: schemaName, tables: make(map[string]*TableInfo, len(tables))}
	for _, t := range tables {
		m.tables[t.Name] = t
	}
	return m
}

// Table returns the named table or an error wrapping csvlab.ErrTableNotFound.
func (m *Module) Table(name string) (*TableInfo, error) {
	t, ok := m.tables[name]
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", m.Name, name, csvlab.ErrTableNotFound)
	}
	return t, nil
}

// Tables returns the visible tables sorted by name. Tables whose names start
// with "~" are bookkeeping and are left out.
func (m *Module) Tables() []*TableInfo {
	var out []*TableInfo
	for name, t := range m.tables {
		if !strings.HasPrefix(name, "~") {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

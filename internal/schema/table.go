package schema

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Tier is the role a table plays in the pipeline.
type Tier int

const (
	TierLookup   Tier = iota // contents known at declaration time
	TierManual               // rows entered by users or scripts
	TierComputed             // rows produced by populate
	TierJob                  // bookkeeping, hidden from listings
)

func (t Tier) String() string {
	switch t {
	case TierLookup:
		return "lookup"
	case TierManual:
		return "manual"
	case TierComputed:
		return "computed"
	case TierJob:
		return "job"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// Column is one table attribute.
type Column struct {
	Name     string
	Type     string
	Nullable bool

	// Default is a SQL expression, rendered verbatim.
	Default string

	// Check is a predicate over the column, e.g. "BETWEEN -128 AND 127".
	// It is rendered as CHECK ("name" <Check>).
	Check string

	Comment string
}

// ForeignKey references the primary key of another table.
type ForeignKey struct {
	Columns []string

	// RefSchema is the referenced table's schema; empty means the same schema.
	RefSchema  string
	RefTable   string
	RefColumns []string
}

// Table is a declarable table definition.
type Table struct {
	Name       string
	Tier       Tier
	Comment    string
	Columns    []Column
	PrimaryKey []string
	ForeignKey []ForeignKey
}

// Hidden reports whether the table is internal bookkeeping.
func (t Table) Hidden() bool {
	return t.Tier == TierJob || strings.HasPrefix(t.Name, "~")
}

// CreateStatements renders the DDL that declares t in schemaName.
// Statements are idempotent: CREATE TABLE IF NOT EXISTS followed by comments.
func (t Table) CreateStatements(schemaName string) []string {
	ident := pgx.Identifier{schemaName, t.Name}.Sanitize()

	var defs []string
	for _, c := range t.Columns {
		def := fmt.Sprintf("%s %s", quoteIdent(c.Name), c.Type)
		if !c.Nullable {
			def += " NOT NULL"
		}
		if c.Default != "" {
			def += " DEFAULT " + c.Default
		}
		if c.Check != "" {
			def += fmt.Sprintf(" CHECK (%s %s)", quoteIdent(c.Name), c.Check)
		}
		defs = append(defs, def)
	}
	if len(t.PrimaryKey) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", quoteIdents(t.PrimaryKey)))
	}
	for _, fk := range t.ForeignKey {
		refSchema := fk.RefSchema
		if refSchema == "" {
			refSchema = schemaName
		}
		defs = append(defs, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s) ON UPDATE CASCADE ON DELETE RESTRICT",
			quoteIdents(fk.Columns),
			pgx.Identifier{refSchema, fk.RefTable}.Sanitize(),
			quoteIdents(fk.RefColumns)))
	}

	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)", ident, strings.Join(defs, ",\n    ")),
	}
	if t.Comment != "" {
		stmts = append(stmts, fmt.Sprintf("COMMENT ON TABLE %s IS %s", ident, quoteLiteral(t.Tier.String()+": "+t.Comment)))
	}
	for _, c := range t.Columns {
		if c.Comment != "" {
			stmts = append(stmts, fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s", ident, quoteIdent(c.Name), quoteLiteral(c.Comment)))
		}
	}
	return stmts
}

// Info describes t as it exists in schemaName, without asking the database.
func (t Table) Info(schemaName string) *TableInfo {
	info := &TableInfo{
		Schema:     schemaName,
		Name:       t.Name,
		PrimaryKey: append([]string(nil), t.PrimaryKey...),
	}
	for _, c := range t.Columns {
		info.Columns = append(info.Columns, ColumnInfo{
			Name:       c.Name,
			DataType:   c.Type,
			Nullable:   c.Nullable,
			HasDefault: c.Default != "",
		})
	}
	return info
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func quoteIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

// quoteLiteral quotes s as a standard-conforming SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

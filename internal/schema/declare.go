package schema

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/csvlab/internal/db/manager"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// Declare creates schemaName if needed and declares tables in it, all in one
// transaction. Tables that already exist are left untouched. When upstream
// is set it must already exist, since foreign keys point into it.
func Declare(ctx context.Context, q csvlab.Querier, schemaName, upstream string, tables []Table) error {
	mgr := manager.New()
	if upstream != "" {
		if err := mgr.RequireSchema(ctx, q, upstream); err != nil {
			return fmt.Errorf("declare %s: %w", schemaName, err)
		}
	}

	return pgx.BeginFunc(ctx, q, func(tx pgx.Tx) error {
		if err := mgr.CreateSchema(ctx, tx, schemaName); err != nil {
			return err
		}
		for _, t := range tables {
			for _, stmt := range t.CreateStatements(schemaName) {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("declare %s.%s: %w", schemaName, t.Name, err)
				}
			}
		}
		return nil
	})
}

// DeclareLayout declares a layout into the schema it maps to in names.
// It returns the schema name used.
func DeclareLayout(ctx context.Context, q csvlab.Querier, layout Layout, names csvlab.SchemaNames) (string, error) {
	tables, err := layout.Tables(names)
	if err != nil {
		return "", err
	}
	schemaName := layout.SchemaFor(names)
	if schemaName == "" {
		return "", fmt.Errorf("no schema name for layout %s: %w", layout, csvlab.ErrInvalidConfig)
	}
	return schemaName, Declare(ctx, q, schemaName, layout.Upstream(names), tables)
}

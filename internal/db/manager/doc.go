// Package manager provides schema and database lifecycle operations for PostgreSQL.
//
// Schemas are the unit csvlab works in: every layout is declared into one
// schema, and dropping a schema removes its tables with it. Database
// creation is kept for first runs against an empty server.
//
// All operations use pgx.Identifier.Sanitize() for identifier quoting, so
// names with spaces, quotes or semicolons are safe.
//
// # Example Usage
//
//	mgr := manager.New()
//
//	exists, err := mgr.SchemaExists(ctx, pool, "tutorial_lab")
//	err = mgr.CreateSchema(ctx, pool, "tutorial_lab")
//	err = mgr.DropSchema(ctx, pool, "tutorial_lab")
//
// Manager is stateless; thread safety depends on the Querier passed in.
package manager

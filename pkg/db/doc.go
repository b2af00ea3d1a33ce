// Package db wraps pgx connection pooling, goose migrations and transaction
// handling for the PostgreSQL-backed rate limit store.
//
//	pool, err := db.Connect(ctx, cfg.Database)
//	if err != nil {
//		return err
//	}
//	if err := db.Migrate(ctx, pool, ratelimit.Migrations, "migrations", cfg.Database.MigrationsTable, log); err != nil {
//		return err
//	}
//
// Errors are wrapped with [errors.Join] around the sentinels in errors.go.
package db

package db

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

// Schema migrations ship inside the binary so the migrate command and the
// Lambda entrypoints never depend on files being present on disk.
//
//go:embed migrations/*.sql
var migrationFiles embed.FS

// RunMigrations applies any pending embedded migrations. A nil database is
// a no-op so callers running without Postgres (memory-backed dev mode) can
// call it unconditionally.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, database, "migrations")
}

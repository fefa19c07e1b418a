// Package pg is the Postgres-backed implementation of the store
// interfaces, using pgx/v5's native pool rather than database/sql.
// golang-migrate still needs a database/sql driver internally (wired below
// via a blank import), but application code talks to pgx directly.
package pg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Open connects to dsn and pings it before returning the pool. The caller
// hands the pool to New*Store below — one small struct per store interface,
// the same split the rest of this package's table files follow.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return pool, nil
}

// resolveMigrationsDir resolves the migrations directory: an explicit
// override, then JARVIS_MIGRATIONS_DIR, then a path relative to the
// running executable.
func resolveMigrationsDir(override string) string {
	if override != "" {
		return override
	}
	if v := os.Getenv("JARVIS_MIGRATIONS_DIR"); v != "" {
		return v
	}
	exe, err := os.Executable()
	if err != nil {
		return "store/pg/migrations"
	}
	return filepath.Join(filepath.Dir(exe), "migrations")
}

// Migrate applies every pending migration under migrationsDir (or the
// resolved default when empty) to dsn.
func Migrate(dsn, migrationsDir string) error {
	dir := resolveMigrationsDir(migrationsDir)
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return fmt.Errorf("pg: create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("pg: migrate up: %w", err)
	}
	return nil
}

var _ = postgres.Postgres{} // keeps the postgres database driver import live for migrate.New's dsn scheme

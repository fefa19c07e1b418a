package main

import "github.com/jarvis-ai/jarvis/store/pg"

func runMigrate(dsn, migrationsDir string) error {
	return pg.Migrate(dsn, migrationsDir)
}

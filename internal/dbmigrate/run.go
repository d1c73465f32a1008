package dbmigrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/helix/epe-server/migrations"
)

// Run executes a goose command against dbURL. An empty migrationsDir uses the
// migrations embedded in the binary; otherwise SQL files are read from disk.
func Run(ctx context.Context, command string, dbURL string, migrationsDir string) error {
	if dbURL == "" {
		return fmt.Errorf("database URL is empty")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	return runGoose(ctx, db, command, migrationsDir)
}

func runGoose(ctx context.Context, db *sql.DB, command, migrationsDir string) error {
	var fsys fs.FS = migrations.FS
	dir := "."
	if migrationsDir != "" {
		fsys = nil
		dir = migrationsDir
	}
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, dir); err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}

	return nil
}

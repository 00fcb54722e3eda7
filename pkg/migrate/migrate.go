package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// DefaultDir is the on-disk location of the SQL migrations relative to the repo root.
const DefaultDir = "pkg/migrate/migrations"

const embeddedRoot = "migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// source resolves where goose reads migrations from. An empty dir selects the
// copy compiled into the binary.
func source(dir string) (fs.FS, string) {
	if dir == "" {
		return embedded, embeddedRoot
	}
	return nil, dir
}

func prepare(dir string) (string, error) {
	fsys, root := source(dir)
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect("postgres"); err != nil {
		return "", fmt.Errorf("set goose dialect: %w", err)
	}
	return root, nil
}

// Run executes a goose command (up, down, status, redo, reset) against postgres.
func Run(ctx context.Context, db *sql.DB, dir string, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	root, err := prepare(dir)
	if err != nil {
		return err
	}
	defer goose.SetBaseFS(nil)

	if err := goose.RunContext(ctx, command, db, root, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// ToVersion moves the schema up or down until target is the applied version.
func ToVersion(ctx context.Context, db *sql.DB, dir string, target int64) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if target < 0 {
		return fmt.Errorf("invalid target version %d", target)
	}
	root, err := prepare(dir)
	if err != nil {
		return err
	}
	defer goose.SetBaseFS(nil)

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	if current < target {
		err = goose.UpToContext(ctx, db, root, target)
	} else if current > target {
		err = goose.DownToContext(ctx, db, root, target)
	}
	if err != nil {
		return fmt.Errorf("goose migrate %d -> %d: %w", current, target, err)
	}
	return nil
}

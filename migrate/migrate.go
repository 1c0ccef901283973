// Package migrate applies the team directory schema with goose.
package migrate

import (
	"database/sql"
	"embed"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// migrationsFS holds embedded SQL migrations in migrate/sql.
//
//go:embed sql/*.sql
var migrationsFS embed.FS

// Options defines how to run migrations.
type Options struct {
	Driver  string      // postgres or sqlite
	DSN     string      // full DSN for postgres, file path for sqlite
	Command string      // up, down, status, version, up-to, down-to, redo, reset
	Target  int64       // used with up-to/down-to
	Logger  *log.Logger // optional logger
}

// Run executes migrations based on provided options. If Driver or DSN are empty, it is a no-op.
func Run(opts Options) error {
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	if driver == "" || strings.TrimSpace(opts.DSN) == "" {
		return nil
	}

	if opts.Logger != nil {
		goose.SetLogger(opts.Logger)
	}
	goose.SetBaseFS(migrationsFS)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect(dialectFor(driver)); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	db, err := sql.Open(driver, opts.DSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if driver == "sqlite" {
		// team_members cascades on team delete.
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			return fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	dir := "sql"
	switch strings.ToLower(strings.TrimSpace(opts.Command)) {
	case "", "up":
		return goose.Up(db, dir)
	case "down":
		return goose.Down(db, dir)
	case "status":
		return goose.Status(db, dir)
	case "version":
		return goose.Version(db, dir)
	case "up-to":
		return goose.UpTo(db, dir, opts.Target)
	case "down-to":
		return goose.DownTo(db, dir, opts.Target)
	case "redo":
		return goose.Redo(db, dir)
	case "reset":
		return goose.Reset(db, dir)
	default:
		return fmt.Errorf("unknown migration command: %s", opts.Command)
	}
}

func dialectFor(driver string) string {
	if driver == "sqlite" || driver == "sqlite3" {
		return "sqlite3"
	}
	return driver
}

// OptionsFromEnv reads migration settings from the environment.
//
// Env vars:
// - MIGRATE_DRIVER: postgres (default) or sqlite
// - MIGRATE_DSN: db connection string, falls back to the dsn argument
// - MIGRATE_CMD: up, down, status, version, up-to, down-to, redo, reset (default: up)
// - MIGRATE_TARGET: integer version for up-to/down-to
func OptionsFromEnv(dsn string) Options {
	driver := strings.TrimSpace(os.Getenv("MIGRATE_DRIVER"))
	if driver == "" {
		driver = "postgres"
	}
	if v := strings.TrimSpace(os.Getenv("MIGRATE_DSN")); v != "" {
		dsn = v
	}
	cmd := strings.TrimSpace(os.Getenv("MIGRATE_CMD"))
	if cmd == "" {
		cmd = "up"
	}
	var target int64
	if v := strings.TrimSpace(os.Getenv("MIGRATE_TARGET")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			target = n
		}
	}
	return Options{
		Driver:  driver,
		DSN:     dsn,
		Command: cmd,
		Target:  target,
		Logger:  log.New(os.Stdout, "[migrate] ", log.LstdFlags),
	}
}

// RunFromEnv runs migrations at startup when MIGRATE_ON_START is truthy (1/true/yes/y).
func RunFromEnv(dsn string) error {
	if !IsTruthy(os.Getenv("MIGRATE_ON_START")) {
		return nil
	}
	return Run(OptionsFromEnv(dsn))
}

// IsTruthy reports whether v spells an affirmative flag.
func IsTruthy(v string) bool {
	s := strings.TrimSpace(strings.ToLower(v))
	return s == "1" || s == "true" || s == "yes" || s == "y"
}

package repository

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package globals.
var migrateMu sync.Mutex

// MigrateMySQL runs all pending MySQL migrations.
func MigrateMySQL(db *sql.DB) error {
	return migrate(db, "mysql", "migrations/mysql")
}

// MigrateSQLite runs all pending SQLite migrations.
func MigrateSQLite(db *sql.DB) error {
	return migrate(db, "sqlite3", "migrations/sqlite")
}

func migrate(db *sql.DB, dialect, dir string) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

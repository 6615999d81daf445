package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// OpenSQLite opens a SQLite database file (or a file: URI). The driver is
// modernc.org/sqlite unless built with -tags cgo_sqlite.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLDB, error) {
	path = strings.TrimPrefix(path, "sqlite://")
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	// foreign keys are off by default in SQLite
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return newSQLDB(db, sqliteDialect,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, logger), nil
}

// SQLiteDriverType reports which SQLite implementation is compiled in.
func SQLiteDriverType() string {
	return sqliteDriverType
}

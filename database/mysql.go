package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// OpenMySQL opens a MySQL pool from a go-sql-driver DSN
// (user:pass@tcp(host:3306)/db). A leading mysql:// is ignored.
func OpenMySQL(ctx context.Context, dsn string, logger *slog.Logger) (*SQLDB, error) {
	cfg, err := mysql.ParseDSN(strings.TrimPrefix(dsn, "mysql://"))
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	// DATETIME and TIMESTAMP columns hydrate as time.Time
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return newSQLDB(db, mysqlDialect,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`, logger), nil
}

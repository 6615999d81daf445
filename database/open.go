package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ridoystarlord/rowmap/schema"
)

// DB is a driver that can also be pinged and closed.
type DB interface {
	schema.Driver
	Ping(ctx context.Context) error
	Close() error
}

// Open connects with the named driver. An empty name is inferred from the URL.
func Open(ctx context.Context, driver, url string, logger *slog.Logger) (DB, error) {
	if driver == "" {
		driver = DetectDriver(url)
	}
	switch driver {
	case "postgres", "postgresql", "pgx":
		return OpenPostgres(ctx, url, logger)
	case "mysql":
		return OpenMySQL(ctx, url, logger)
	case "sqlite", "sqlite3":
		return OpenSQLite(ctx, url, logger)
	}
	return nil, fmt.Errorf("unsupported driver %q", driver)
}

// DetectDriver guesses the driver from a connection URL.
func DetectDriver(url string) string {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(url, "mysql://"), strings.Contains(url, "@tcp("):
		return "mysql"
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"),
		strings.HasSuffix(url, ".db"), strings.HasSuffix(url, ".sqlite"):
		return "sqlite"
	}
	return "postgres"
}

// Ping reports whether db answers within ctx.
func Ping(ctx context.Context, db DB) error {
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func logStatement(ctx context.Context, logger *slog.Logger, driver, sql string, args []any) {
	logger.DebugContext(ctx, "executing statement",
		slog.String("driver", driver),
		slog.String("sql", sql),
		slog.Int("args", len(args)))
}

func logFailure(ctx context.Context, logger *slog.Logger, driver, sql string, err error) {
	logger.ErrorContext(ctx, "statement failed",
		slog.String("driver", driver),
		slog.String("sql", sql),
		slog.String("error", err.Error()))
}

package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ridoystarlord/rowmap/schema"
)

// Postgres is a schema.Driver backed by a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres creates the pool and checks that the server answers.
func OpenPostgres(ctx context.Context, connStr string, logger *slog.Logger) (*Postgres, error) {
	if connStr == "" {
		return nil, fmt.Errorf("postgres connection string is empty")
	}
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &Postgres{pool: pool, logger: orDefault(logger)}, nil
}

func (p *Postgres) Name() string { return "postgres" }

// Acquire takes one connection from the pool until Release.
func (p *Postgres) Acquire(ctx context.Context) (schema.Conn, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to acquire connection: %w", err)
	}
	return &pgConn{conn: conn, logger: p.logger}, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the pool (should be called on application shutdown).
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

type pgConn struct {
	conn   *pgxpool.Conn
	logger *slog.Logger
}

func (c *pgConn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	sql = postgresDialect.translate(sql)
	logStatement(ctx, c.logger, "postgres", sql, args)
	tag, err := c.conn.Exec(ctx, sql, args...)
	if err != nil {
		logFailure(ctx, c.logger, "postgres", sql, err)
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Insert appends a RETURNING clause so the generated keys come back as one row.
func (c *pgConn) Insert(ctx context.Context, sql string, keyColumns []string, args ...any) (schema.KeyCursor, error) {
	sql = postgresDialect.translate(sql)
	if len(keyColumns) > 0 {
		sql += " RETURNING " + strings.Join(keyColumns, ", ")
	}
	logStatement(ctx, c.logger, "postgres", sql, args)

	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		logFailure(ctx, c.logger, "postgres", sql, err)
		return nil, err
	}
	defer rows.Close()

	var keys schema.KeyQueue
	if rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read generated keys: %w", err)
		}
		keys = append(keys, values...)
	}
	if err := rows.Err(); err != nil {
		logFailure(ctx, c.logger, "postgres", sql, err)
		return nil, err
	}
	return &keys, nil
}

func (c *pgConn) Query(ctx context.Context, sql string, args ...any) (schema.Rows, error) {
	sql = postgresDialect.translate(sql)
	logStatement(ctx, c.logger, "postgres", sql, args)
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		logFailure(ctx, c.logger, "postgres", sql, err)
		return nil, err
	}
	return rows, nil
}

func (c *pgConn) TableExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (
		SELECT FROM information_schema.tables
		WHERE table_schema = current_schema()
		AND table_name = $1
	)`
	if err := c.conn.QueryRow(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return exists, nil
}

func (c *pgConn) Release() {
	c.conn.Release()
}

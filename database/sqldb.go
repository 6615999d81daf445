package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/ridoystarlord/rowmap/schema"
)

// SQLDB is a schema.Driver over a database/sql pool, used for the MySQL and
// SQLite drivers.
type SQLDB struct {
	db      *sql.DB
	dialect dialect
	exists  string
	logger  *slog.Logger
}

func newSQLDB(db *sql.DB, d dialect, existsQuery string, logger *slog.Logger) *SQLDB {
	return &SQLDB{db: db, dialect: d, exists: existsQuery, logger: orDefault(logger)}
}

func (s *SQLDB) Name() string { return s.dialect.name }

// DB exposes the underlying pool.
func (s *SQLDB) DB() *sql.DB { return s.db }

func (s *SQLDB) Acquire(ctx context.Context) (schema.Conn, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to acquire connection: %w", err)
	}
	return &sqlConn{conn: conn, owner: s}, nil
}

func (s *SQLDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLDB) Close() error {
	return s.db.Close()
}

type sqlConn struct {
	conn  *sql.Conn
	owner *SQLDB
}

func (c *sqlConn) exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	query = c.owner.dialect.translate(query)
	logStatement(ctx, c.owner.logger, c.owner.dialect.name, query, args)
	res, err := c.conn.ExecContext(ctx, query, args...)
	if err != nil {
		logFailure(ctx, c.owner.logger, c.owner.dialect.name, query, err)
		return nil, err
	}
	return res, nil
}

func (c *sqlConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.exec(ctx, query, args)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Insert reports the engine's last insert id as the single generated key.
func (c *sqlConn) Insert(ctx context.Context, query string, keyColumns []string, args ...any) (schema.KeyCursor, error) {
	res, err := c.exec(ctx, query, args)
	if err != nil {
		return nil, err
	}
	var keys schema.KeyQueue
	if len(keyColumns) > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("read generated key: %w", err)
		}
		keys = append(keys, id)
	}
	return &keys, nil
}

func (c *sqlConn) Query(ctx context.Context, query string, args ...any) (schema.Rows, error) {
	query = c.owner.dialect.translate(query)
	logStatement(ctx, c.owner.logger, c.owner.dialect.name, query, args)
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		logFailure(ctx, c.owner.logger, c.owner.dialect.name, query, err)
		return nil, err
	}
	return &sqlRows{rows: rows}, nil
}

func (c *sqlConn) TableExists(ctx context.Context, name string) (bool, error) {
	var found string
	err := c.conn.QueryRowContext(ctx, c.owner.exists, name).Scan(&found)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return true, nil
}

func (c *sqlConn) Release() {
	c.conn.Close()
}

type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool { return r.rows.Next() }

func (r *sqlRows) Values() ([]any, error) {
	cols, err := r.rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return values, nil
}

func (r *sqlRows) Err() error { return r.rows.Err() }

func (r *sqlRows) Close() { r.rows.Close() }

package schema

import "context"

// Driver hands out connections. Every Table and Query operation acquires one
// connection for a single statement and releases it before returning.
type Driver interface {
	Name() string
	Acquire(ctx context.Context) (Conn, error)
}

// Conn is a single scoped connection. SQL text uses ? placeholders; drivers
// rebind them if their engine needs another style.
type Conn interface {
	// Exec runs a statement and returns the number of affected rows.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	// Insert runs an INSERT and returns the keys the database generated for
	// keyColumns.
	Insert(ctx context.Context, sql string, keyColumns []string, args ...any) (KeyCursor, error)
	// Query runs a SELECT and returns a forward-only cursor.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	// TableExists reports whether the named table is present in the database.
	TableExists(ctx context.Context, name string) (bool, error)
	Release()
}

// Rows is a forward-only result cursor.
type Rows interface {
	Next() bool
	Values() ([]any, error)
	Err() error
	Close()
}

// KeyCursor yields generated key values one at a time.
type KeyCursor interface {
	Next() (any, bool)
}

// KeyQueue is a KeyCursor over an in-memory list of values.
type KeyQueue []any

// Next pops the first queued value.
func (q *KeyQueue) Next() (any, bool) {
	if len(*q) == 0 {
		return nil, false
	}
	v := (*q)[0]
	*q = (*q)[1:]
	return v, true
}

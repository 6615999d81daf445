package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type call struct {
	sql  string
	args []any
	keys []string
}

// recorder is a Driver that records every statement and replays canned results.
type recorder struct {
	calls []call

	rows       [][]any
	keys       []any
	exists     bool
	execErr    error
	acquireErr error

	acquired int
	released int
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) Acquire(ctx context.Context) (Conn, error) {
	if r.acquireErr != nil {
		return nil, r.acquireErr
	}
	r.acquired++
	return &recorderConn{r: r}, nil
}

// statements returns the recorded SQL after the initial CREATE, if any.
func (r *recorder) statements() []call {
	out := make([]call, 0, len(r.calls))
	for _, c := range r.calls {
		if len(c.sql) >= 6 && c.sql[:6] == "CREATE" {
			continue
		}
		out = append(out, c)
	}
	return out
}

type recorderConn struct {
	r *recorder
}

func (c *recorderConn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	c.r.calls = append(c.r.calls, call{sql: sql, args: args})
	if c.r.execErr != nil {
		return 0, c.r.execErr
	}
	return 1, nil
}

func (c *recorderConn) Insert(ctx context.Context, sql string, keys []string, args ...any) (KeyCursor, error) {
	c.r.calls = append(c.r.calls, call{sql: sql, args: args, keys: keys})
	if c.r.execErr != nil {
		return nil, c.r.execErr
	}
	q := KeyQueue(append([]any(nil), c.r.keys...))
	return &q, nil
}

func (c *recorderConn) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	c.r.calls = append(c.r.calls, call{sql: sql, args: args})
	if c.r.execErr != nil {
		return nil, c.r.execErr
	}
	return &recorderRows{rows: c.r.rows, i: -1}, nil
}

func (c *recorderConn) TableExists(ctx context.Context, name string) (bool, error) {
	return c.r.exists, c.r.execErr
}

func (c *recorderConn) Release() {
	c.r.released++
}

type recorderRows struct {
	rows [][]any
	i    int
}

func (r *recorderRows) Next() bool {
	r.i++
	return r.i < len(r.rows)
}

func (r *recorderRows) Values() ([]any, error) { return r.rows[r.i], nil }
func (r *recorderRows) Err() error             { return nil }
func (r *recorderRows) Close()                 {}

type usersSchema struct {
	table *Table
	id    *Column[int32]
	name  *Column[string]
}

func newUsers(t *testing.T, reg *Registry) usersSchema {
	t.Helper()
	id := ColumnOf[int32](Integer).Name("id").PrimaryKey(true).AutoIncrement(true).MustBuild()
	name := ColumnOf[string](Varchar).Name("name").Length(50).MustBuild()
	table, err := NewTable(reg, "users", id, name)
	require.NoError(t, err)
	return usersSchema{table: table, id: id, name: name}
}

type ordersSchema struct {
	table  *Table
	id     *Column[int32]
	userID *Column[int32]
	total  *Column[float64]
}

func newOrders(t *testing.T, reg *Registry, users usersSchema) ordersSchema {
	t.Helper()
	id := ColumnOf[int32](Integer).Name("id").PrimaryKey(true).AutoIncrement(true).MustBuild()
	userID := ColumnOf[int32](Integer).Name("user_id").References(References(users.table, users.id)).MustBuild()
	total := ColumnOf[float64](Double).Name("total").Nullable(true).MustBuild()
	table, err := NewTable(reg, "orders", id, userID, total)
	require.NoError(t, err)
	return ordersSchema{table: table, id: id, userID: userID, total: total}
}

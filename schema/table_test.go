package schema

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableDDL(t *testing.T) {
	reg := NewRegistry()
	users := newUsers(t, reg)
	orders := newOrders(t, reg, users)

	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS users (\nid INTEGER NOT NULL AUTO_INCREMENT,\nname VARCHAR(50) NOT NULL,\nPRIMARY KEY (id)\n);",
		users.table.CreateSQL())
	assert.Equal(t, "DROP TABLE IF EXISTS\nusers\nCASCADE", users.table.DropSQL())
	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS orders (\nid INTEGER NOT NULL AUTO_INCREMENT,\nuser_id INTEGER NOT NULL,\ntotal DOUBLE,\nPRIMARY KEY (id),\nFOREIGN KEY (user_id)\nREFERENCES users(id) ON DELETE CASCADE\n);",
		orders.table.CreateSQL())
	assert.Equal(t, orders.table.CreateSQL(), "CREATE TABLE IF NOT EXISTS "+orders.table.String())
}

func TestTableGroupsForeignKeysByTarget(t *testing.T) {
	reg := NewRegistry()
	a := ColumnOf[int32](Integer).Name("a").PrimaryKey(true).MustBuild()
	b := ColumnOf[int32](Integer).Name("b").PrimaryKey(true).MustBuild()
	pair, err := NewTable(reg, "pair", a, b)
	require.NoError(t, err)

	x := ColumnOf[int32](Integer).Name("x").References(References(pair, a)).MustBuild()
	y := ColumnOf[int32](Integer).Name("y").References(References(pair, b)).MustBuild()
	link, err := NewTable(reg, "link", x, y)
	require.NoError(t, err)

	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS link (\nx INTEGER NOT NULL,\ny INTEGER NOT NULL,\nFOREIGN KEY (x, y)\nREFERENCES pair(a, b) ON DELETE CASCADE\n);",
		link.CreateSQL())
}

func TestForeignKeyTargetMustExist(t *testing.T) {
	reg := NewRegistry()
	users := newUsers(t, reg)
	stray := ColumnOf[int32](Integer).Name("stray").MustBuild()

	_, err := ColumnOf[int32](Integer).Name("x").References(References(users.table, stray)).Build()
	require.ErrorIs(t, err, ErrValidation)

	_, err = ColumnOf[int32](Integer).Name("x").References(References[int32](nil, users.id)).Build()
	require.ErrorIs(t, err, ErrValidation)
}

func TestNewTableValidation(t *testing.T) {
	reg := NewRegistry()
	id := ColumnOf[int32](Integer).Name("id").MustBuild()

	_, err := NewTable(nil, "t", id)
	require.ErrorIs(t, err, ErrValidation)
	_, err = NewTable(reg, "", id)
	require.ErrorIs(t, err, ErrValidation)
	_, err = NewTable(reg, "t")
	require.ErrorIs(t, err, ErrValidation)
	_, err = NewTable(reg, "t", id, nil)
	require.ErrorIs(t, err, ErrValidation)
	_, err = NewTable(reg, "t", id, id)
	require.ErrorIs(t, err, ErrValidation)
}

func TestTableDoesNotAliasPrototypes(t *testing.T) {
	reg := NewRegistry()
	users := newUsers(t, reg)

	require.NoError(t, Set(users.table, users.name, "a"))
	_, ok := users.name.Get()
	assert.False(t, ok)
}

func TestChangedColumns(t *testing.T) {
	reg := NewRegistry()
	users := newUsers(t, reg)
	row := users.table.NewRow()

	assert.Empty(t, row.ChangedColumns())

	require.NoError(t, row.Set("id", int32(5)))
	assert.Empty(t, row.ChangedColumns(), "auto increment columns are never dirty")

	require.NoError(t, Set(row, users.name, "a"))
	changed := row.ChangedColumns()
	require.Len(t, changed, 1)
	assert.Equal(t, "name", changed[0].Name())

	row.refreshSnapshot()
	require.NoError(t, Set(row, users.name, "a"))
	assert.Empty(t, row.ChangedColumns(), "same value is not a change")

	require.NoError(t, row.Set("name", nil))
	assert.Len(t, row.ChangedColumns(), 1)

	require.ErrorIs(t, row.Set("missing", 1), ErrValidation)
	require.ErrorIs(t, row.Set("name", 1), ErrValidation)
}

func TestCommitInsertReadsGeneratedKey(t *testing.T) {
	reg := NewRegistry()
	users := newUsers(t, reg)
	db := &recorder{keys: []any{int64(1)}}
	ctx := context.Background()

	row := users.table.NewRow()
	require.NoError(t, Set(row, users.name, "a"))
	assert.Equal(t, "INSERT INTO users (name)\nVALUES (?)", row.CommitSQL())
	require.NoError(t, row.Commit(ctx, db))

	require.Len(t, db.calls, 2)
	assert.Equal(t, users.table.CreateSQL(), db.calls[0].sql)
	assert.Equal(t, "INSERT INTO users (name)\nVALUES (?)", db.calls[1].sql)
	assert.Equal(t, []any{"a"}, db.calls[1].args)
	assert.Equal(t, []string{"id"}, db.calls[1].keys)

	id, ok := Get(row, users.id)
	require.True(t, ok)
	assert.Equal(t, int32(1), id)
	assert.True(t, row.InDatabase())
	assert.Empty(t, row.ChangedColumns())
	assert.Equal(t, db.acquired, db.released)
}

func TestCommitGeneratesOnlyMissingKeys(t *testing.T) {
	reg := NewRegistry()
	tenant := ColumnOf[int32](Integer).Name("tenant_id").PrimaryKey(true).MustBuild()
	id := ColumnOf[int32](Integer).Name("id").PrimaryKey(true).AutoIncrement(true).MustBuild()
	label := ColumnOf[string](Varchar).Name("label").Length(20).MustBuild()
	items, err := NewTable(reg, "items", tenant, id, label)
	require.NoError(t, err)
	db := &recorder{keys: []any{int64(9)}}

	row := items.NewRow()
	require.NoError(t, Set(row, tenant, 5))
	require.NoError(t, Set(row, label, "x"))
	require.NoError(t, row.Commit(context.Background(), db))

	stmts := db.statements()
	require.Len(t, stmts, 1)
	assert.Equal(t, "INSERT INTO items (tenant_id, label)\nVALUES (?, ?)", stmts[0].sql)
	assert.Equal(t, []string{"id"}, stmts[0].keys)

	gotTenant, _ := Get(row, tenant)
	gotID, _ := Get(row, id)
	assert.Equal(t, int32(5), gotTenant)
	assert.Equal(t, int32(9), gotID)
}

func TestCommitBadGeneratedKeyKeepsRowPersisted(t *testing.T) {
	reg := NewRegistry()
	users := newUsers(t, reg)
	db := &recorder{keys: []any{"not a number"}}
	ctx := context.Background()

	row := users.table.NewRow()
	require.NoError(t, Set(row, users.name, "a"))
	require.ErrorIs(t, row.Commit(ctx, db), ErrValidation)
	assert.True(t, row.InDatabase())
	n := len(db.calls)

	require.NoError(t, row.Commit(ctx, db))
	assert.Len(t, db.calls, n)
}

func TestCommitUpdateBindsKeysAfterSet(t *testing.T) {
	reg := NewRegistry()
	users := newUsers(t, reg)
	db := &recorder{keys: []any{int64(1)}}
	ctx := context.Background()

	row := users.table.NewRow()
	require.NoError(t, Set(row, users.name, "a"))
	require.NoError(t, row.Commit(ctx, db))

	require.NoError(t, Set(row, users.name, "b"))
	require.NoError(t, row.Commit(ctx, db))

	stmts := db.statements()
	require.Len(t, stmts, 2)
	assert.Equal(t, "UPDATE users\nSET name = ?\nWHERE id = ?;", stmts[1].sql)
	assert.Equal(t, []any{"b", int32(1)}, stmts[1].args)
	assert.Nil(t, stmts[1].keys)
}

func TestCommitIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	users := newUsers(t, reg)
	db := &recorder{keys: []any{int64(1)}}
	ctx := context.Background()

	row := users.table.NewRow()
	require.NoError(t, Set(row, users.name, "a"))
	require.NoError(t, row.Commit(ctx, db))
	n := len(db.calls)

	require.NoError(t, row.Commit(ctx, db))
	assert.Len(t, db.calls, n)
	assert.Equal(t, "", row.CommitSQL())
}

func TestCommitCreatesOncePerRegistry(t *testing.T) {
	reg := NewRegistry()
	users := newUsers(t, reg)
	db := &recorder{keys: []any{int64(1)}}
	ctx := context.Background()

	for _, name := range []string{"a", "b"} {
		row := users.table.NewRow()
		require.NoError(t, Set(row, users.name, name))
		require.NoError(t, row.Commit(ctx, db))
	}
	assert.Len(t, db.calls, 3)
	assert.True(t, reg.Created("users"))
}

func TestCommitFailureLeavesSnapshot(t *testing.T) {
	reg := NewRegistry()
	users := newUsers(t, reg)
	ctx := context.Background()
	require.NoError(t, users.table.CreateTable(ctx, &recorder{}))

	boom := errors.New("constraint violated")
	db := &recorder{execErr: boom}
	row := users.table.NewRow()
	require.NoError(t, Set(row, users.name, "a"))

	err := row.Commit(ctx, db)
	require.ErrorIs(t, err, ErrDriver)
	require.ErrorIs(t, err, boom)

	var derr *DriverError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INSERT INTO users (name)\nVALUES (?)", derr.SQL)

	assert.False(t, row.InDatabase())
	assert.Len(t, row.ChangedColumns(), 1)
	assert.Equal(t, db.acquired, db.released)
}

func TestCommitWithoutAutoKeyUsesExec(t *testing.T) {
	reg := NewRegistry()
	code := ColumnOf[string](Char).Name("code").Length(2).PrimaryKey(true).MustBuild()
	label := ColumnOf[string](Varchar).Name("label").Length(40).MustBuild()
	countries, err := NewTable(reg, "countries", code, label)
	require.NoError(t, err)

	db := &recorder{}
	row := countries.NewRow()
	require.NoError(t, Set(row, code, "NL"))
	require.NoError(t, Set(row, label, "Netherlands"))
	require.NoError(t, row.Commit(context.Background(), db))

	stmts := db.statements()
	require.Len(t, stmts, 1)
	assert.Equal(t, "INSERT INTO countries (code, label)\nVALUES (?, ?)", stmts[0].sql)
	assert.Nil(t, stmts[0].keys)
	assert.Equal(t, []any{"NL", "Netherlands"}, stmts[0].args)
}

func TestUpdateReloadsRow(t *testing.T) {
	reg := NewRegistry()
	users := newUsers(t, reg)
	ctx := context.Background()

	row := users.table.NewRow()
	require.NoError(t, Set(row, users.id, 1))
	require.NoError(t, Set(row, users.name, "a"))
	row.refreshSnapshot()
	row.SetInDatabase(true)

	db := &recorder{rows: [][]any{{int64(1), "z"}}}
	changed, err := row.Update(ctx, db)
	require.NoError(t, err)
	assert.True(t, changed)

	name, _ := Get(row, users.name)
	assert.Equal(t, "z", name)
	assert.Empty(t, row.ChangedColumns())

	stmts := db.statements()
	require.Len(t, stmts, 1)
	assert.Equal(t, "SELECT * from users\nWHERE (id = ?)", stmts[0].sql)
	assert.Equal(t, []any{int32(1)}, stmts[0].args)

	changed, err = row.Update(ctx, db)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestUpdateNotFound(t *testing.T) {
	reg := NewRegistry()
	users := newUsers(t, reg)

	row := users.table.NewRow()
	require.NoError(t, Set(row, users.id, 1))
	require.NoError(t, Set(row, users.name, "a"))

	found, err := row.Update(context.Background(), &recorder{})
	require.NoError(t, err)
	assert.False(t, found)
	name, _ := Get(row, users.name)
	assert.Equal(t, "a", name)
	assert.Len(t, row.ChangedColumns(), 1)
}

func TestUpdateAndDeleteNeedKeys(t *testing.T) {
	reg := NewRegistry()
	users := newUsers(t, reg)
	db := &recorder{}
	ctx := context.Background()

	row := users.table.NewRow()
	_, err := row.Update(ctx, db)
	require.ErrorIs(t, err, ErrInvalidState)
	require.ErrorIs(t, row.Delete(ctx, db), ErrInvalidState)

	note := ColumnOf[string](Text).Name("body").MustBuild()
	notes, err := NewTable(reg, "notes", note)
	require.NoError(t, err)
	require.ErrorIs(t, notes.Delete(ctx, db), ErrInvalidState)

	assert.Empty(t, db.calls)
}

func TestDeleteClearsRow(t *testing.T) {
	reg := NewRegistry()
	users := newUsers(t, reg)
	db := &recorder{}

	row := users.table.NewRow()
	require.NoError(t, Set(row, users.id, 1))
	require.NoError(t, Set(row, users.name, "a"))
	row.refreshSnapshot()
	row.SetInDatabase(true)

	require.NoError(t, row.Delete(context.Background(), db))
	require.Len(t, db.calls, 1)
	assert.Equal(t, "DELETE FROM users WHERE id = ?", db.calls[0].sql)
	assert.Equal(t, []any{int32(1)}, db.calls[0].args)

	_, ok := row.Value("id")
	assert.False(t, ok)
	_, ok = row.Value("name")
	assert.False(t, ok)
	assert.Empty(t, row.ChangedColumns())
	assert.False(t, row.InDatabase())
}

func TestDropAndExists(t *testing.T) {
	reg := NewRegistry()
	users := newUsers(t, reg)
	db := &recorder{exists: true}
	ctx := context.Background()

	require.NoError(t, users.table.Drop(ctx, db))
	require.Len(t, db.calls, 2)
	assert.Equal(t, users.table.CreateSQL(), db.calls[0].sql)
	assert.Equal(t, users.table.DropSQL(), db.calls[1].sql)
	assert.False(t, reg.Created("users"))

	ok, err := users.table.Exists(ctx, db)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAcquireFailure(t *testing.T) {
	reg := NewRegistry()
	users := newUsers(t, reg)
	boom := errors.New("connection refused")

	err := users.table.CreateTable(context.Background(), &recorder{acquireErr: boom})
	require.ErrorIs(t, err, ErrDriver)
	require.ErrorIs(t, err, boom)
	assert.False(t, reg.Created("users"))
}

func TestRegistrySharedAcrossGoroutines(t *testing.T) {
	reg := NewRegistry()
	id := ColumnOf[int32](Integer).Name("id").PrimaryKey(true).MustBuild()

	var wg sync.WaitGroup
	tables := make([]*Table, 32)
	for i := range tables {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tables[i] = MustNewTable(reg, "shared", id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, []string{"shared"}, reg.Names())
	for _, tbl := range tables {
		assert.Same(t, tables[0].ddl, tbl.ddl)
	}
}

func TestRegistryFirstSchemaWins(t *testing.T) {
	reg := NewRegistry()
	a := ColumnOf[int32](Integer).Name("a").MustBuild()
	b := ColumnOf[int32](Integer).Name("b").MustBuild()

	first := MustNewTable(reg, "t", a)
	second := MustNewTable(reg, "t", b)
	assert.Equal(t, first.CreateSQL(), second.CreateSQL())
	assert.True(t, reg.Has("t"))
}

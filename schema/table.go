package schema

import (
	"context"
	"fmt"
	"strings"
)

type snapshot struct {
	value any
	ok    bool
}

// Table is a schema together with the state of one row. The schema part
// (names, keys, DDL) is immutable; the row part is owned by this instance
// and is not safe for concurrent mutation.
type Table struct {
	name       string
	registry   *Registry
	ddl        *statements
	inDatabase bool

	columns     []Field
	oldValues   []snapshot
	primaryKeys []Field
	byName      map[string]Field

	// foreign keys grouped by referenced table, groups in first-seen order
	foreignKeys map[string][]*ForeignKey
	fkTables    []string
}

// NewTable builds a table from column prototypes. The columns are cloned so
// the table owns its cells; values carried by the prototypes are kept and
// form the initial snapshot.
func NewTable(registry *Registry, name string, columns ...Field) (*Table, error) {
	if registry == nil {
		return nil, &ValidationError{Field: "registry", Message: "registry is required"}
	}
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "table name is required"}
	}
	if len(columns) == 0 {
		return nil, &ValidationError{Field: name, Message: "a table needs at least one column"}
	}
	owned := make([]Field, len(columns))
	for i, c := range columns {
		if c == nil {
			return nil, &ValidationError{Field: name, Message: fmt.Sprintf("column %d is nil", i)}
		}
		owned[i] = c.Clone()
	}
	return newTable(registry, name, owned)
}

// MustNewTable is NewTable for package-level schema declarations.
func MustNewTable(registry *Registry, name string, columns ...Field) *Table {
	t, err := NewTable(registry, name, columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// newTable takes ownership of columns.
func newTable(registry *Registry, name string, columns []Field) (*Table, error) {
	t := &Table{
		name:        name,
		registry:    registry,
		columns:     columns,
		oldValues:   make([]snapshot, len(columns)),
		byName:      make(map[string]Field, len(columns)),
		foreignKeys: make(map[string][]*ForeignKey),
	}

	for _, c := range columns {
		if _, dup := t.byName[c.Name()]; dup {
			return nil, &ValidationError{Field: name, Message: fmt.Sprintf("duplicate column %s", c.Name())}
		}
		t.byName[c.Name()] = c
		if c.PrimaryKey() {
			t.primaryKeys = append(t.primaryKeys, c)
		}
		if fk := c.ForeignKey(); fk != nil {
			ref := fk.TableName()
			if _, seen := t.foreignKeys[ref]; !seen {
				t.fkTables = append(t.fkTables, ref)
			}
			t.foreignKeys[ref] = append(t.foreignKeys[ref], fk)
		}
	}
	t.refreshSnapshot()

	t.ddl = registry.lookup(name, t.buildStatements)
	return t, nil
}

// Name is the table name and the schema identity.
func (t *Table) Name() string { return t.name }

// Registry is the DDL cache this table was built against.
func (t *Table) Registry() *Registry { return t.registry }

// InDatabase reports whether this row is known to be persisted.
func (t *Table) InDatabase() bool { return t.inDatabase }

func (t *Table) SetInDatabase(v bool) { t.inDatabase = v }

// Columns returns the live cells in schema order.
func (t *Table) Columns() []Field {
	return append([]Field(nil), t.columns...)
}

// PrimaryKeys returns the primary key cells in schema order.
func (t *Table) PrimaryKeys() []Field {
	return append([]Field(nil), t.primaryKeys...)
}

// Column returns the live cell called name, or nil.
func (t *Table) Column(name string) Field {
	return t.byName[name]
}

// Value returns the value of the named column.
func (t *Table) Value(name string) (any, bool) {
	c := t.byName[name]
	if c == nil {
		return nil, false
	}
	return c.Value()
}

// Set assigns the named column. A nil value clears it.
func (t *Table) Set(name string, v any) error {
	c := t.byName[name]
	if c == nil {
		return &ValidationError{Field: name, Message: fmt.Sprintf("table %s has no such column", t.name)}
	}
	return c.SetAny(v)
}

// Get reads the column of t named like col.
func Get[T any](t *Table, col *Column[T]) (T, bool) {
	var zero T
	if col == nil {
		return zero, false
	}
	c, ok := t.byName[col.Name()].(*Column[T])
	if !ok {
		return zero, false
	}
	return c.Get()
}

// Set assigns the column of t named like col.
func Set[T any](t *Table, col *Column[T], v T) error {
	if col == nil {
		return &ValidationError{Field: t.name, Message: "column is required"}
	}
	c, ok := t.byName[col.Name()].(*Column[T])
	if !ok {
		return &ValidationError{Field: col.Name(), Message: fmt.Sprintf("table %s has no column of this type", t.name)}
	}
	c.Set(v)
	return nil
}

// NewRow returns an empty, unpersisted row of the same schema.
func (t *Table) NewRow() *Table {
	cols := make([]Field, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.Clone()
		cols[i].Clear()
	}
	row, _ := newTable(t.registry, t.name, cols)
	return row
}

// ChangedColumns returns the columns whose value differs from the last
// snapshot, in schema order. Auto-increment columns are never reported.
func (t *Table) ChangedColumns() []Field {
	var changed []Field
	for i, c := range t.columns {
		if c.AutoIncrement() {
			continue
		}
		old := t.oldValues[i]
		_, ok := c.Value()
		switch {
		case old.ok != ok:
			changed = append(changed, c)
		case ok && !c.ValueEqual(old.value):
			changed = append(changed, c)
		}
	}
	return changed
}

func (t *Table) refreshSnapshot() {
	for i, c := range t.columns {
		v, ok := c.Value()
		t.oldValues[i] = snapshot{value: v, ok: ok}
	}
}

// needsGeneratedKeys reports whether some primary key has no value yet.
func (t *Table) needsGeneratedKeys() bool {
	return len(t.missingKeys()) > 0
}

// missingKeys lists the primary keys without a value, in key order.
func (t *Table) missingKeys() []Field {
	var out []Field
	for _, k := range t.primaryKeys {
		if _, ok := k.Value(); !ok {
			out = append(out, k)
		}
	}
	return out
}

func (t *Table) requireKeys(op string) error {
	if len(t.primaryKeys) == 0 {
		return &StateError{Op: op, Message: fmt.Sprintf("table %s has no primary key", t.name)}
	}
	for _, k := range t.primaryKeys {
		if _, ok := k.Value(); !ok {
			return &StateError{Op: op, Message: fmt.Sprintf("primary key %s has no value", k.Name())}
		}
	}
	return nil
}

// String is the column-list fragment shared by CREATE TABLE.
func (t *Table) String() string { return t.ddl.columns }

// CreateSQL is the cached CREATE TABLE IF NOT EXISTS statement.
func (t *Table) CreateSQL() string { return t.ddl.create }

// DropSQL is the cached DROP TABLE statement.
func (t *Table) DropSQL() string { return t.ddl.drop }

// CommitSQL renders the statement Commit would issue for the current diff,
// or "" when nothing changed.
func (t *Table) CommitSQL() string {
	changed := t.ChangedColumns()
	if len(changed) == 0 {
		return ""
	}
	return t.writeSQL(changed, t.isInsert())
}

func (t *Table) isInsert() bool {
	return t.needsGeneratedKeys() || !t.inDatabase
}

func (t *Table) writeSQL(changed []Field, insert bool) string {
	names := make([]string, len(changed))
	for i, c := range changed {
		names[i] = c.Name()
	}
	if insert {
		return fmt.Sprintf("INSERT INTO %s (%s)\nVALUES (%s)",
			t.name,
			strings.Join(names, ", "),
			strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", "))
	}
	for i := range names {
		names[i] += " = ?"
	}
	return fmt.Sprintf("UPDATE %s\nSET %s\nWHERE %s;", t.name, strings.Join(names, ", "), t.keyFilter())
}

func (t *Table) keyFilter() string {
	parts := make([]string, len(t.primaryKeys))
	for i, k := range t.primaryKeys {
		parts[i] = k.Name() + " = ?"
	}
	return strings.Join(parts, " AND ")
}

func (t *Table) keyArgs(dst []any) []any {
	for _, k := range t.primaryKeys {
		v, _ := k.Value()
		dst = append(dst, v)
	}
	return dst
}

func (t *Table) keyNames() []string {
	names := make([]string, len(t.primaryKeys))
	for i, k := range t.primaryKeys {
		names[i] = k.Name()
	}
	return names
}

func (t *Table) buildStatements() *statements {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (\n", t.name)

	defs := make([]string, len(t.columns))
	for i, c := range t.columns {
		defs[i] = c.Definition()
	}
	b.WriteString(strings.Join(defs, ",\n"))

	if len(t.primaryKeys) > 0 {
		fmt.Fprintf(&b, ",\nPRIMARY KEY (%s)", strings.Join(t.keyNames(), ", "))
	}

	for _, ref := range t.fkTables {
		keys := t.foreignKeys[ref]
		local := make([]string, len(keys))
		remote := make([]string, len(keys))
		for i, k := range keys {
			local[i] = k.Column()
			remote[i] = k.Target().Name()
		}
		fmt.Fprintf(&b, ",\nFOREIGN KEY (%s)\nREFERENCES %s(%s) ON DELETE CASCADE",
			strings.Join(local, ", "), ref, strings.Join(remote, ", "))
	}
	b.WriteString("\n);")

	columns := b.String()
	return &statements{
		columns: columns,
		create:  "CREATE TABLE IF NOT EXISTS " + columns,
		drop:    fmt.Sprintf("DROP TABLE IF EXISTS\n%s\nCASCADE", t.name),
	}
}

func (t *Table) ensureCreated(ctx context.Context, db Driver) error {
	if t.ddl.created.Load() {
		return nil
	}
	return t.CreateTable(ctx, db)
}

func acquire(ctx context.Context, db Driver, op string) (Conn, error) {
	if db == nil {
		return nil, &ValidationError{Field: op, Message: "driver is required"}
	}
	conn, err := db.Acquire(ctx)
	if err != nil {
		return nil, driverError(op, "", err)
	}
	return conn, nil
}

// CreateTable issues CREATE TABLE IF NOT EXISTS.
func (t *Table) CreateTable(ctx context.Context, db Driver) error {
	conn, err := acquire(ctx, db, "create "+t.name)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, t.ddl.create); err != nil {
		return driverError("create "+t.name, t.ddl.create, err)
	}
	t.ddl.created.Store(true)
	return nil
}

// Drop issues DROP TABLE IF EXISTS ... CASCADE.
func (t *Table) Drop(ctx context.Context, db Driver) error {
	if err := t.ensureCreated(ctx, db); err != nil {
		return err
	}
	conn, err := acquire(ctx, db, "drop "+t.name)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, t.ddl.drop); err != nil {
		return driverError("drop "+t.name, t.ddl.drop, err)
	}
	t.ddl.created.Store(false)
	return nil
}

// Exists asks the database whether the table is present.
func (t *Table) Exists(ctx context.Context, db Driver) (bool, error) {
	conn, err := acquire(ctx, db, "exists "+t.name)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	ok, err := conn.TableExists(ctx, t.name)
	if err != nil {
		return false, driverError("exists "+t.name, "", err)
	}
	return ok, nil
}

// Commit writes the dirty diff. A clean row issues no statement. The row is
// inserted when a primary key is missing or it is not yet persisted, and
// updated otherwise; generated keys are read back after an insert.
func (t *Table) Commit(ctx context.Context, db Driver) error {
	if err := t.ensureCreated(ctx, db); err != nil {
		return err
	}

	changed := t.ChangedColumns()
	if len(changed) == 0 {
		return nil
	}

	generate := t.needsGeneratedKeys()
	insert := generate || !t.inDatabase
	sql := t.writeSQL(changed, insert)

	args := make([]any, 0, len(changed)+len(t.primaryKeys))
	for _, c := range changed {
		v, _ := c.Value()
		args = append(args, v)
	}
	if !insert {
		args = t.keyArgs(args)
	}

	conn, err := acquire(ctx, db, "commit "+t.name)
	if err != nil {
		return err
	}
	defer conn.Release()

	if generate {
		missing := t.missingKeys()
		names := make([]string, len(missing))
		for i, k := range missing {
			names[i] = k.Name()
		}
		keys, err := conn.Insert(ctx, sql, names, args...)
		if err != nil {
			return driverError("commit "+t.name, sql, err)
		}
		// the row exists from here on, even if a key cannot be assigned
		t.inDatabase = true
		for _, k := range missing {
			v, ok := keys.Next()
			if !ok {
				break
			}
			if err := k.SetAny(v); err != nil {
				t.refreshSnapshot()
				return err
			}
		}
	} else if _, err := conn.Exec(ctx, sql, args...); err != nil {
		return driverError("commit "+t.name, sql, err)
	}

	t.refreshSnapshot()
	t.inDatabase = true
	return nil
}

// Update reloads the row by primary key. It reports false with no error when
// the row no longer exists, leaving t untouched. Otherwise every column takes
// the persisted value and the result tells whether anything differed from the
// last snapshot.
func (t *Table) Update(ctx context.Context, db Driver) (bool, error) {
	if err := t.requireKeys("update " + t.name); err != nil {
		return false, err
	}

	q, err := t.Query(ctx, db)
	if err != nil {
		return false, err
	}
	for _, k := range t.primaryKeys {
		q.Filter(k.Clone(), Equal)
	}

	row, found, err := q.First(ctx)
	if err != nil || !found {
		return false, err
	}

	for i, c := range t.columns {
		v, _ := row.columns[i].Value()
		if err := c.SetAny(v); err != nil {
			return false, err
		}
	}
	changed := len(t.ChangedColumns()) > 0
	t.refreshSnapshot()
	t.inDatabase = true
	return changed, nil
}

// Delete removes the row by primary key, then clears every column. The
// instance becomes an empty shell whether or not a row matched.
func (t *Table) Delete(ctx context.Context, db Driver) error {
	if err := t.requireKeys("delete " + t.name); err != nil {
		return err
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE %s", t.name, t.keyFilter())
	args := t.keyArgs(nil)

	conn, err := acquire(ctx, db, "delete "+t.name)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, sql, args...); err != nil {
		return driverError("delete "+t.name, sql, err)
	}

	for _, c := range t.columns {
		c.Clear()
	}
	t.refreshSnapshot()
	t.inDatabase = false
	return nil
}

// Query starts a SELECT over this table's schema, creating the table first
// if this process has not done so yet.
func (t *Table) Query(ctx context.Context, db Driver) (*Query, error) {
	if err := t.ensureCreated(ctx, db); err != nil {
		return nil, err
	}
	return NewQuery(db, t)
}

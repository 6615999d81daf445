package schema

import (
	"context"
	"fmt"
	"strings"
)

// Query builds and runs a SELECT over a base schema. Builder methods record
// the first error they meet; it is returned by Err, First and All.
type Query struct {
	db         Driver
	base       *Table
	prototypes []Field
	filters    []*Filter
	joins      map[string]*Join
	joinOrder  []string
	err        error
}

// NewQuery starts a query. The base schema's columns are captured now, so
// later changes to base do not affect hydration.
func NewQuery(db Driver, base *Table) (*Query, error) {
	if db == nil {
		return nil, &ValidationError{Field: "query", Message: "driver is required"}
	}
	if base == nil {
		return nil, &ValidationError{Field: "query", Message: "table is required"}
	}
	protos := make([]Field, len(base.columns))
	for i, c := range base.columns {
		protos[i] = c.Clone()
		protos[i].Clear()
	}
	return &Query{
		db:         db,
		base:       base,
		prototypes: protos,
		joins:      make(map[string]*Join),
	}, nil
}

// Err returns the first builder error.
func (q *Query) Err() error { return q.err }

// Where adds a filter; top-level filters are AND-ed together.
func (q *Query) Where(f *Filter) *Query {
	if q.err != nil {
		return q
	}
	if f == nil {
		q.err = &ValidationError{Field: "query", Message: "filter is required"}
		return q
	}
	if f.Err() != nil {
		q.err = f.Err()
		return q
	}
	if f.Len() == 0 {
		return q
	}
	q.filters = append(q.filters, f)
	return q
}

// Filter adds a single-predicate filter comparing column's current value.
func (q *Query) Filter(column Field, kind Comparison) *Query {
	return q.Where(NewFilter().Column(column, kind))
}

// FilterAll adds one filter over columns, each compared with the matching
// kind and linked by rel. Empty input adds nothing.
func (q *Query) FilterAll(rel Relation, columns []Field, kinds []Comparison) *Query {
	if q.err != nil || len(columns) == 0 || len(kinds) == 0 {
		return q
	}
	if len(columns) != len(kinds) {
		q.err = &ValidationError{Field: "query", Message: "columns and kinds must be the same length"}
		return q
	}
	f := NewFilter().Column(columns[0], kinds[0])
	for i := 1; i < len(columns); i++ {
		f.Relate(rel, columns[i], kinds[i])
	}
	return q.Where(f)
}

// FilterValue adds a filter comparing column against v.
func FilterValue[T any](q *Query, column *Column[T], v T, kind Comparison) *Query {
	if column == nil {
		return q.Where(NewFilter().Column(nil, kind))
	}
	return q.Filter(column.CloneWithValue(v), kind)
}

// Join adds a copy of j. Joins against the same table name are merged.
func (q *Query) Join(j *Join) *Query {
	if q.err != nil {
		return q
	}
	if j == nil {
		q.err = &ValidationError{Field: "query", Message: "join is required"}
		return q
	}
	if j.Err() != nil {
		q.err = j.Err()
		return q
	}
	key := j.Table().Name()
	if existing, ok := q.joins[key]; ok {
		existing.Merge(j)
		return q
	}
	q.joins[key] = j.clone()
	q.joinOrder = append(q.joinOrder, key)
	return q
}

// JoinValue joins table on column compared against the column's value.
func (q *Query) JoinValue(table *Table, column Field, kind Comparison) *Query {
	return q.Join(NewJoin(table).OnValue(NewFilter().Column(column, kind)))
}

// JoinColumn joins table on column compared against otherTable.otherColumn.
func (q *Query) JoinColumn(table *Table, column Field, kind Comparison, otherTable *Table, otherColumn Field) *Query {
	return q.Join(NewJoin(table).OnColumn(NewFilter().Column(column, kind), otherTable, otherColumn))
}

// String renders the SELECT: joins in the order they were first added, then
// the top-level filters.
func (q *Query) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT * from %s", q.base.Name())
	for _, key := range q.joinOrder {
		fmt.Fprintf(&b, "\nJOIN %s", q.joins[key])
	}
	if len(q.filters) > 0 {
		parts := make([]string, len(q.filters))
		for i, f := range q.filters {
			parts[i] = f.String()
		}
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(parts, " AND "))
	}
	return b.String()
}

// Args returns the bound parameters in placeholder order: join value
// filters first, in join order, then the top-level filters.
func (q *Query) Args() []any {
	var args []any
	for _, key := range q.joinOrder {
		args = q.joins[key].args(args)
	}
	for _, f := range q.filters {
		args = f.args(args)
	}
	return args
}

// First returns the first matching row.
func (q *Query) First(ctx context.Context) (*Table, bool, error) {
	rows, err := q.run(ctx, 1)
	if err != nil || len(rows) == 0 {
		return nil, false, err
	}
	return rows[0], true, nil
}

// All returns every matching row.
func (q *Query) All(ctx context.Context) ([]*Table, error) {
	return q.run(ctx, 0)
}

func (q *Query) run(ctx context.Context, limit int) ([]*Table, error) {
	if q.err != nil {
		return nil, q.err
	}
	sql := q.String()
	op := "query " + q.base.Name()

	conn, err := acquire(ctx, q.db, op)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, q.Args()...)
	if err != nil {
		return nil, driverError(op, sql, err)
	}
	defer rows.Close()

	var result []*Table
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, driverError(op, sql, err)
		}
		row, err := q.hydrate(values)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
		if limit > 0 && len(result) >= limit {
			return result, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, driverError(op, sql, err)
	}
	return result, nil
}

// hydrate clones every prototype with the value at the same position.
func (q *Query) hydrate(values []any) (*Table, error) {
	if len(values) < len(q.prototypes) {
		return nil, &ValidationError{
			Field:   q.base.Name(),
			Message: fmt.Sprintf("result row has %d values, schema has %d columns", len(values), len(q.prototypes)),
		}
	}
	cols := make([]Field, len(q.prototypes))
	for i, proto := range q.prototypes {
		c, err := proto.CloneWith(values[i])
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	row, err := newTable(q.base.registry, q.base.name, cols)
	if err != nil {
		return nil, err
	}
	row.inDatabase = true
	return row, nil
}

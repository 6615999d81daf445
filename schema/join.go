package schema

import (
	"fmt"
	"strings"
)

type columnFilter struct {
	filter      *Filter
	otherTable  *Table
	otherColumn Field
}

// Join is a secondary table plus the predicates joining it. Value filters
// compare a column of the joined table against a bound literal; column
// filters compare it against another table's column and bind nothing.
type Join struct {
	table *Table

	values     []*Filter
	valueChain chain

	columns     []columnFilter
	columnChain chain

	err error
}

// NewJoin starts a join against table.
func NewJoin(table *Table) *Join {
	j := &Join{table: table}
	if table == nil {
		j.err = &ValidationError{Field: "join", Message: "table is required"}
	}
	return j
}

// Table is the joined schema.
func (j *Join) Table() *Table { return j.table }

// Err returns the first error recorded while building the join.
func (j *Join) Err() error { return j.err }

// OnValue adds a value filter, implicitly AND-ed to earlier value filters.
func (j *Join) OnValue(f *Filter) *Join {
	return j.addValue(And, false, f)
}

// OnValueRelate adds a value filter joined by rel. The value track must
// already hold a filter.
func (j *Join) OnValueRelate(rel Relation, f *Filter) *Join {
	return j.addValue(rel, true, f)
}

// OnColumn adds a column filter comparing f's columns to otherTable.otherColumn.
func (j *Join) OnColumn(f *Filter, otherTable *Table, otherColumn Field) *Join {
	return j.addColumn(And, false, f, otherTable, otherColumn)
}

// OnColumnRelate adds a column filter joined by rel. The column track must
// already hold a filter.
func (j *Join) OnColumnRelate(rel Relation, f *Filter, otherTable *Table, otherColumn Field) *Join {
	return j.addColumn(rel, true, f, otherTable, otherColumn)
}

func (j *Join) addValue(rel Relation, explicit bool, f *Filter) *Join {
	if j.err != nil {
		return j
	}
	if err := checkFilter(f); err != nil {
		j.err = err
		return j
	}
	if err := j.valueChain.link("join "+j.table.Name(), rel, explicit); err != nil {
		j.err = err
		return j
	}
	j.values = append(j.values, f)
	return j
}

func (j *Join) addColumn(rel Relation, explicit bool, f *Filter, otherTable *Table, otherColumn Field) *Join {
	if j.err != nil {
		return j
	}
	if err := checkFilter(f); err != nil {
		j.err = err
		return j
	}
	if otherTable == nil || otherColumn == nil {
		j.err = &ValidationError{Field: "join " + j.table.Name(), Message: "other table and column are required"}
		return j
	}
	if err := j.columnChain.link("join "+j.table.Name(), rel, explicit); err != nil {
		j.err = err
		return j
	}
	j.columns = append(j.columns, columnFilter{filter: f, otherTable: otherTable, otherColumn: otherColumn})
	return j
}

func checkFilter(f *Filter) error {
	if f == nil {
		return &ValidationError{Field: "join", Message: "filter is required"}
	}
	if f.Err() != nil {
		return f.Err()
	}
	if f.Len() == 0 {
		return &ValidationError{Field: "join", Message: "filter has no predicates"}
	}
	return nil
}

// Merge appends other's predicates onto j. Where both joins hold value
// filters (or both hold column filters) an AND joins the two groups.
func (j *Join) Merge(other *Join) *Join {
	if j.err != nil || other == nil {
		return j
	}
	if other.err != nil {
		j.err = other.err
		return j
	}
	j.values = append(j.values, other.values...)
	j.valueChain.splice(other.valueChain)
	j.columns = append(j.columns, other.columns...)
	j.columnChain.splice(other.columnChain)
	return j
}

func (j *Join) clone() *Join {
	c := *j
	c.values = append([]*Filter(nil), j.values...)
	c.valueChain.relations = append([]Relation(nil), j.valueChain.relations...)
	c.columns = append([]columnFilter(nil), j.columns...)
	c.columnChain.relations = append([]Relation(nil), j.columnChain.relations...)
	return &c
}

// ValueFilters returns the filters whose columns are bound as parameters.
func (j *Join) ValueFilters() []*Filter {
	return append([]*Filter(nil), j.values...)
}

// String renders the join target and its ON clause, one predicate group
// per line. Column filters render the other table's column in place of a
// placeholder.
func (j *Join) String() string {
	if j.table == nil {
		return ""
	}
	name := j.table.Name()
	var b strings.Builder
	b.WriteString(name)
	if len(j.values) == 0 && len(j.columns) == 0 {
		return b.String()
	}
	b.WriteString("\nON")

	for i, f := range j.values {
		if i > 0 {
			fmt.Fprintf(&b, "\n%s", j.valueChain.relations[i-1])
		}
		fmt.Fprintf(&b, "\n%s", f.render(name, func(predicate) string { return "?" }))
	}
	if len(j.values) > 0 && len(j.columns) > 0 {
		fmt.Fprintf(&b, "\n%s", And)
	}
	for i, cf := range j.columns {
		if i > 0 {
			fmt.Fprintf(&b, "\n%s", j.columnChain.relations[i-1])
		}
		target := cf.otherTable.Name() + "." + cf.otherColumn.Name()
		fmt.Fprintf(&b, "\n%s", cf.filter.render(name, func(predicate) string { return target }))
	}
	return b.String()
}

func (j *Join) args(dst []any) []any {
	for _, f := range j.values {
		dst = f.args(dst)
	}
	return dst
}

package schema

import (
	"fmt"
	"strings"
)

// chain tracks the relation sequence of a predicate list. The first link
// takes no relation; every later link needs one.
type chain struct {
	started   bool
	relations []Relation
}

// link records one more predicate. A zero relation means "no relation given":
// AND once the chain is non-empty.
func (c *chain) link(op string, rel Relation, explicit bool) error {
	if explicit {
		if !c.started {
			return &StateError{Op: op, Message: "a relation needs at least one prior predicate"}
		}
		if !rel.valid() {
			return &ValidationError{Field: "relation", Message: fmt.Sprintf("unknown relation %q", rel)}
		}
	}
	if c.started {
		if !explicit {
			rel = And
		}
		c.relations = append(c.relations, rel)
	}
	c.started = true
	return nil
}

// splice appends other's relations, with an AND at the seam when both sides
// already hold predicates.
func (c *chain) splice(other chain) {
	if c.started && other.started {
		c.relations = append(c.relations, And)
	}
	c.relations = append(c.relations, other.relations...)
	c.started = c.started || other.started
}

type predicate struct {
	column Field
	kind   Comparison
}

// Filter is an ordered chain of column comparisons joined by AND/OR. The
// first error encountered while building sticks and is reported by Err.
type Filter struct {
	chain
	predicates []predicate
	err        error
}

// NewFilter returns an empty filter.
func NewFilter() *Filter {
	return &Filter{}
}

// Column appends a predicate. On a non-empty filter it behaves as And.
func (f *Filter) Column(column Field, kind Comparison) *Filter {
	return f.add(And, false, column, kind)
}

// Relate appends a predicate joined to the previous one by rel. It is an
// InvalidState error on an empty filter.
func (f *Filter) Relate(rel Relation, column Field, kind Comparison) *Filter {
	return f.add(rel, true, column, kind)
}

func (f *Filter) And(column Field, kind Comparison) *Filter {
	return f.Relate(And, column, kind)
}

func (f *Filter) Or(column Field, kind Comparison) *Filter {
	return f.Relate(Or, column, kind)
}

func (f *Filter) add(rel Relation, explicit bool, column Field, kind Comparison) *Filter {
	if f.err != nil {
		return f
	}
	if column == nil {
		f.err = &ValidationError{Field: "filter", Message: "column is required"}
		return f
	}
	if !kind.valid() {
		f.err = &ValidationError{Field: column.Name(), Message: fmt.Sprintf("unknown comparison %d", kind)}
		return f
	}
	if err := f.link("filter "+column.Name(), rel, explicit); err != nil {
		f.err = err
		return f
	}
	f.predicates = append(f.predicates, predicate{column: column, kind: kind})
	return f
}

// Err returns the first error recorded while building the filter.
func (f *Filter) Err() error { return f.err }

// Len is the number of predicates.
func (f *Filter) Len() int { return len(f.predicates) }

// Columns returns the predicate columns in chain order.
func (f *Filter) Columns() []Field {
	cols := make([]Field, len(f.predicates))
	for i, p := range f.predicates {
		cols[i] = p.column
	}
	return cols
}

// Kinds returns the comparison operators in chain order.
func (f *Filter) Kinds() []Comparison {
	kinds := make([]Comparison, len(f.predicates))
	for i, p := range f.predicates {
		kinds[i] = p.kind
	}
	return kinds
}

// Relations returns the relations between consecutive predicates.
func (f *Filter) Relations() []Relation {
	return append([]Relation(nil), f.relations...)
}

// String renders "(a = ? AND b > ?)" with bare column names.
func (f *Filter) String() string {
	return f.render("", func(predicate) string { return "?" })
}

// render builds the filter text from its predicates, prefixing every column
// with qualifier when set and producing each right-hand operand via operand.
func (f *Filter) render(qualifier string, operand func(predicate) string) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range f.predicates {
		if i > 0 {
			fmt.Fprintf(&b, " %s ", f.relations[i-1])
		}
		if qualifier != "" {
			b.WriteString(qualifier)
			b.WriteByte('.')
		}
		fmt.Fprintf(&b, "%s %s %s", p.column.Name(), p.kind.Symbol(), operand(p))
	}
	b.WriteByte(')')
	return b.String()
}

// args appends the bound value of every predicate, absent values as nil.
func (f *Filter) args(dst []any) []any {
	for _, p := range f.predicates {
		v, _ := p.column.Value()
		dst = append(dst, v)
	}
	return dst
}

package schema

import (
	"fmt"
	"strings"
)

// Field is the type-erased view of a Column held by a Table.
type Field interface {
	Name() string
	Type() TypeTag
	Length() int
	PrimaryKey() bool
	Nullable() bool
	AutoIncrement() bool
	ForeignKey() *ForeignKey

	// Value returns the current value and whether one is present.
	Value() (any, bool)
	// SetAny assigns v after converting it to the column's value type.
	// A nil v clears the value.
	SetAny(v any) error
	Clear()

	// Clone copies the column, value included.
	Clone() Field
	// CloneWith copies the column metadata and carries v as the value.
	CloneWith(v any) (Field, error)
	// Equal compares metadata and value.
	Equal(other Field) bool
	// ValueEqual compares the present value with v.
	ValueEqual(v any) bool

	// Definition renders the column for CREATE TABLE.
	Definition() string
}

// Column is a typed cell of a row together with its schema metadata.
// A column built by ColumnBuilder is a prototype; CloneWithValue instantiates it.
type Column[T any] struct {
	name          string
	typ           TypeTag
	length        int
	primaryKey    bool
	nullable      bool
	autoIncrement bool
	foreignKey    *ForeignKey
	compare       func(a, b T) int

	value T
	valid bool
}

func (c *Column[T]) Name() string            { return c.name }
func (c *Column[T]) Type() TypeTag           { return c.typ }
func (c *Column[T]) Length() int             { return c.length }
func (c *Column[T]) PrimaryKey() bool        { return c.primaryKey }
func (c *Column[T]) Nullable() bool          { return c.nullable }
func (c *Column[T]) AutoIncrement() bool     { return c.autoIncrement }
func (c *Column[T]) ForeignKey() *ForeignKey { return c.foreignKey }

// Get returns the typed value.
func (c *Column[T]) Get() (T, bool) {
	return c.value, c.valid
}

// Set assigns a typed value.
func (c *Column[T]) Set(v T) {
	c.value = v
	c.valid = true
}

func (c *Column[T]) Value() (any, bool) {
	if !c.valid {
		return nil, false
	}
	return c.value, true
}

func (c *Column[T]) SetAny(v any) error {
	if v == nil {
		c.Clear()
		return nil
	}
	typed, ok := coerce[T](v)
	if !ok {
		var zero T
		return &ValidationError{
			Field:   c.name,
			Message: fmt.Sprintf("cannot assign %T to column of type %T", v, zero),
		}
	}
	c.Set(typed)
	return nil
}

func (c *Column[T]) Clear() {
	var zero T
	c.value = zero
	c.valid = false
}

func (c *Column[T]) clone() *Column[T] {
	cp := *c
	return &cp
}

func (c *Column[T]) Clone() Field {
	return c.clone()
}

// CloneWithValue returns an independent copy carrying v.
func (c *Column[T]) CloneWithValue(v T) *Column[T] {
	cp := c.clone()
	cp.Set(v)
	return cp
}

func (c *Column[T]) CloneWith(v any) (Field, error) {
	cp := c.clone()
	if err := cp.SetAny(v); err != nil {
		return nil, err
	}
	return cp, nil
}

// Compare orders two columns by value. Both values must be present.
func (c *Column[T]) Compare(other *Column[T]) (int, error) {
	if other == nil || !c.valid || !other.valid {
		return 0, &StateError{Op: "compare " + c.name, Message: "value is absent"}
	}
	return c.compare(c.value, other.value), nil
}

func (c *Column[T]) ValueEqual(v any) bool {
	if !c.valid {
		return false
	}
	typed, ok := coerce[T](v)
	if !ok {
		return false
	}
	return c.compare(c.value, typed) == 0
}

func (c *Column[T]) Equal(other Field) bool {
	o, ok := other.(*Column[T])
	if !ok || o == nil {
		return false
	}
	if c.typ != o.typ || c.name != o.name || c.length != o.length ||
		c.primaryKey != o.primaryKey || c.nullable != o.nullable ||
		c.autoIncrement != o.autoIncrement || !c.foreignKey.equal(o.foreignKey) {
		return false
	}
	if c.valid != o.valid {
		return false
	}
	return !c.valid || c.compare(c.value, o.value) == 0
}

func (c *Column[T]) Definition() string {
	var b strings.Builder
	b.WriteString(c.name)
	b.WriteByte(' ')
	b.WriteString(c.typ.String())
	if c.length > 0 {
		fmt.Fprintf(&b, "(%d)", c.length)
	}
	if !c.nullable {
		b.WriteString(" NOT NULL")
	}
	if c.autoIncrement {
		b.WriteString(" AUTO_INCREMENT")
	}
	return b.String()
}

func (c *Column[T]) String() string {
	return c.Definition()
}

package schema

import (
	"bytes"
	"cmp"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ColumnBuilder assembles a Column prototype. Builders are values: every
// setter returns a modified copy, so a partially configured builder can be
// shared as a template.
type ColumnBuilder[T any] struct {
	typ           TypeTag
	name          string
	length        int
	primaryKey    bool
	nullable      bool
	autoIncrement bool
	foreignKey    *ForeignKeyBuilder[T]
	compare       func(a, b T) int
}

// ColumnOf starts a builder for an ordered Go value type.
func ColumnOf[T cmp.Ordered](typ TypeTag) ColumnBuilder[T] {
	return ColumnBuilder[T]{typ: typ, compare: cmp.Compare[T]}
}

// TimeColumn starts a builder for DATE/TIME/TIMESTAMP columns.
func TimeColumn(typ TypeTag) ColumnBuilder[time.Time] {
	return ColumnBuilder[time.Time]{typ: typ, compare: func(a, b time.Time) int { return a.Compare(b) }}
}

// BoolColumn starts a builder for boolean columns. false sorts before true.
func BoolColumn(typ TypeTag) ColumnBuilder[bool] {
	return ColumnBuilder[bool]{typ: typ, compare: func(a, b bool) int {
		switch {
		case a == b:
			return 0
		case !a:
			return -1
		}
		return 1
	}}
}

// UUIDColumn starts a builder for UUID columns, ordered bytewise.
func UUIDColumn(typ TypeTag) ColumnBuilder[uuid.UUID] {
	return ColumnBuilder[uuid.UUID]{typ: typ, compare: func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) }}
}

func (b ColumnBuilder[T]) Name(name string) ColumnBuilder[T] {
	b.name = name
	return b
}

func (b ColumnBuilder[T]) Length(n int) ColumnBuilder[T] {
	b.length = n
	return b
}

func (b ColumnBuilder[T]) PrimaryKey(v bool) ColumnBuilder[T] {
	b.primaryKey = v
	return b
}

func (b ColumnBuilder[T]) Nullable(v bool) ColumnBuilder[T] {
	b.nullable = v
	return b
}

func (b ColumnBuilder[T]) AutoIncrement(v bool) ColumnBuilder[T] {
	b.autoIncrement = v
	return b
}

// References attaches a foreign key. The referencing column name is filled
// in from the builder at Build time.
func (b ColumnBuilder[T]) References(fk ForeignKeyBuilder[T]) ColumnBuilder[T] {
	b.foreignKey = &fk
	return b
}

// Build validates the options and returns the column prototype.
func (b ColumnBuilder[T]) Build() (*Column[T], error) {
	if b.name == "" {
		return nil, &ValidationError{Field: "name", Message: "column name is required"}
	}
	if !b.typ.Valid() {
		return nil, &ValidationError{Field: b.name, Message: "unknown column type"}
	}
	if b.length < 0 {
		return nil, &ValidationError{Field: b.name, Message: "length cannot be negative"}
	}
	if b.compare == nil {
		return nil, &ValidationError{Field: b.name, Message: "builder has no value ordering"}
	}

	col := &Column[T]{
		name:          b.name,
		typ:           b.typ,
		length:        b.length,
		primaryKey:    b.primaryKey,
		nullable:      b.nullable,
		autoIncrement: b.autoIncrement,
		compare:       b.compare,
	}
	if b.foreignKey != nil {
		fk, err := b.foreignKey.Column(b.name).Build()
		if err != nil {
			return nil, err
		}
		col.foreignKey = fk
	}
	return col, nil
}

// MustBuild is Build for package-level schema declarations; it panics on error.
func (b ColumnBuilder[T]) MustBuild() *Column[T] {
	col, err := b.Build()
	if err != nil {
		panic(err)
	}
	return col
}

// ForeignKeyBuilder assembles a ForeignKey. The type parameter ties the
// referencing column's value type to the referenced one.
type ForeignKeyBuilder[T any] struct {
	column string
	table  *Table
	target *Column[T]
}

// References starts a foreign key pointing at target inside table.
func References[T any](table *Table, target *Column[T]) ForeignKeyBuilder[T] {
	return ForeignKeyBuilder[T]{table: table, target: target}
}

// Column sets the referencing column name.
func (b ForeignKeyBuilder[T]) Column(name string) ForeignKeyBuilder[T] {
	b.column = name
	return b
}

func (b ForeignKeyBuilder[T]) Build() (*ForeignKey, error) {
	switch {
	case b.column == "":
		return nil, &ValidationError{Field: "foreign key", Message: "referencing column name is required"}
	case b.table == nil:
		return nil, &ValidationError{Field: b.column, Message: "referenced table is required"}
	case b.target == nil:
		return nil, &ValidationError{Field: b.column, Message: "referenced column is required"}
	case b.table.Column(b.target.name) == nil:
		return nil, &ValidationError{
			Field:   b.column,
			Message: fmt.Sprintf("table %s has no column %s", b.table.Name(), b.target.name),
		}
	}
	return &ForeignKey{column: b.column, table: b.table, target: b.target.clone()}, nil
}

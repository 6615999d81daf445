package schema

import (
	"fmt"
	"strings"
)

// TypeTag is the declared SQL type of a column.
type TypeTag int

const (
	Array TypeTag = iota + 1
	BigInt
	Binary
	Bit
	Blob
	Boolean
	Char
	Clob
	Datalink
	Date
	Decimal
	Distinct
	Double
	Float
	Integer
	JavaObject
	LongNVarchar
	LongVarbinary
	LongVarchar
	NChar
	NClob
	Null
	Numeric
	NVarchar
	Other
	Real
	Ref
	RefCursor
	RowID
	SmallInt
	SQLXML
	Struct
	Time
	TimeWithTimezone
	Timestamp
	TimestampWithTimezone
	TinyInt
	Varbinary
	Varchar

	// Text and UUID are extensions outside the standard type list.
	Text
	UUID
)

var typeNames = map[TypeTag]string{
	Array:                 "ARRAY",
	BigInt:                "BIGINT",
	Binary:                "BINARY",
	Bit:                   "BIT",
	Blob:                  "BLOB",
	Boolean:               "BOOLEAN",
	Char:                  "CHAR",
	Clob:                  "CLOB",
	Datalink:              "DATALINK",
	Date:                  "DATE",
	Decimal:               "DECIMAL",
	Distinct:              "DISTINCT",
	Double:                "DOUBLE",
	Float:                 "FLOAT",
	Integer:               "INTEGER",
	JavaObject:            "JAVA_OBJECT",
	LongNVarchar:          "LONGNVARCHAR",
	LongVarbinary:         "LONGVARBINARY",
	LongVarchar:           "LONGVARCHAR",
	NChar:                 "NCHAR",
	NClob:                 "NCLOB",
	Null:                  "NULL",
	Numeric:               "NUMERIC",
	NVarchar:              "NVARCHAR",
	Other:                 "OTHER",
	Real:                  "REAL",
	Ref:                   "REF",
	RefCursor:             "REF_CURSOR",
	RowID:                 "ROWID",
	SmallInt:              "SMALLINT",
	SQLXML:                "SQLXML",
	Struct:                "STRUCT",
	Time:                  "TIME",
	TimeWithTimezone:      "TIME_WITH_TIMEZONE",
	Timestamp:             "TIMESTAMP",
	TimestampWithTimezone: "TIMESTAMP_WITH_TIMEZONE",
	TinyInt:               "TINYINT",
	Varbinary:             "VARBINARY",
	Varchar:               "VARCHAR",
	Text:                  "TEXT",
	UUID:                  "UUID",
}

func (t TypeTag) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TypeTag(%d)", int(t))
}

// Valid reports whether t is one of the known type tags.
func (t TypeTag) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// ParseTypeTag resolves a SQL type name (case-insensitive) to its tag.
func ParseTypeTag(name string) (TypeTag, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for tag, n := range typeNames {
		if n == upper {
			return tag, nil
		}
	}
	return 0, &ValidationError{Field: "type", Message: fmt.Sprintf("unknown SQL type %q", name)}
}

// Comparison is the operator of a single predicate.
type Comparison int

const (
	Equal Comparison = iota
	NotEqual
	GreaterThan
	LessThan
	GreaterThanEqual
	LessThanEqual
)

// Symbol returns the SQL operator text.
func (c Comparison) Symbol() string {
	switch c {
	case Equal:
		return "="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case LessThan:
		return "<"
	case GreaterThanEqual:
		return ">="
	case LessThanEqual:
		return "<="
	}
	return "?"
}

func (c Comparison) valid() bool {
	return c >= Equal && c <= LessThanEqual
}

// ParseComparison accepts the operator symbols used by Symbol.
func ParseComparison(symbol string) (Comparison, error) {
	for c := Equal; c <= LessThanEqual; c++ {
		if c.Symbol() == symbol {
			return c, nil
		}
	}
	if symbol == "<>" {
		return NotEqual, nil
	}
	return 0, &ValidationError{Field: "comparison", Message: fmt.Sprintf("unknown operator %q", symbol)}
}

// Relation joins two predicates of a chain.
type Relation string

const (
	And Relation = "AND"
	Or  Relation = "OR"
)

func (r Relation) valid() bool {
	return r == And || r == Or
}

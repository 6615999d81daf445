package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/ridoystarlord/rowmap/schema"
)

// Schema is a set of table prototypes built from definitions, kept in
// dependency order: a table always comes after the tables it references.
type Schema struct {
	tables []*schema.Table
	byName map[string]*schema.Table
}

// Tables returns the prototypes in dependency order.
func (s *Schema) Tables() []*schema.Table {
	return append([]*schema.Table(nil), s.tables...)
}

// Table returns the prototype named name, or nil.
func (s *Schema) Table(name string) *schema.Table {
	return s.byName[name]
}

// Names returns the table names in dependency order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.tables))
	for i, t := range s.tables {
		names[i] = t.Name()
	}
	return names
}

// Load reads definitions from path: a directory is scanned for tagged Go
// structs, anything else is read as a YAML schema file.
func Load(path string) ([]TableDef, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	if info.IsDir() {
		return LoadTags(path)
	}
	return LoadYAML(path)
}

// Build turns definitions into table prototypes registered in reg.
func Build(reg *schema.Registry, defs []TableDef) (*Schema, error) {
	ordered, err := Order(defs)
	if err != nil {
		return nil, err
	}

	s := &Schema{byName: make(map[string]*schema.Table, len(ordered))}
	for _, def := range ordered {
		cols := make([]schema.Field, 0, len(def.Columns))
		for _, cd := range def.Columns {
			col, err := buildColumn(cd, s.byName)
			if err != nil {
				return nil, fmt.Errorf("table %s: column %s: %w", def.Name, cd.Name, err)
			}
			cols = append(cols, col)
		}
		t, err := schema.NewTable(reg, def.Name, cols...)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", def.Name, err)
		}
		s.tables = append(s.tables, t)
		s.byName[def.Name] = t
	}
	return s, nil
}

// Order sorts definitions so referenced tables precede the tables that
// reference them. Independent tables keep their input order.
func Order(defs []TableDef) ([]TableDef, error) {
	index := make(map[string]int, len(defs))
	for i, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("table %d has no name", i+1)
		}
		if _, dup := index[def.Name]; dup {
			return nil, fmt.Errorf("table %s is defined more than once", def.Name)
		}
		index[def.Name] = i
	}

	deps := make([]map[string]bool, len(defs))
	for i, def := range defs {
		deps[i] = make(map[string]bool)
		for _, col := range def.Columns {
			if col.References == nil {
				continue
			}
			target := col.References.Table
			if target == def.Name {
				return nil, fmt.Errorf("table %s: column %s references its own table", def.Name, col.Name)
			}
			if _, ok := index[target]; !ok {
				return nil, fmt.Errorf("table %s: column %s references unknown table %s", def.Name, col.Name, target)
			}
			deps[i][target] = true
		}
	}

	done := make(map[string]bool, len(defs))
	ordered := make([]TableDef, 0, len(defs))
	for len(ordered) < len(defs) {
		progressed := false
		for i, def := range defs {
			if done[def.Name] || !ready(deps[i], done) {
				continue
			}
			done[def.Name] = true
			ordered = append(ordered, def)
			progressed = true
		}
		if !progressed {
			var stuck []string
			for _, def := range defs {
				if !done[def.Name] {
					stuck = append(stuck, def.Name)
				}
			}
			return nil, fmt.Errorf("foreign key cycle between tables: %s", strings.Join(stuck, ", "))
		}
	}
	return ordered, nil
}

func ready(deps, done map[string]bool) bool {
	for name := range deps {
		if !done[name] {
			return false
		}
	}
	return true
}

// Supported reports whether Build can produce a column of the given type.
func Supported(tag schema.TypeTag) bool {
	switch tag {
	case schema.TinyInt, schema.SmallInt, schema.Integer, schema.BigInt,
		schema.Real, schema.Float, schema.Double, schema.Decimal, schema.Numeric,
		schema.Char, schema.Varchar, schema.NChar, schema.NVarchar,
		schema.LongVarchar, schema.LongNVarchar, schema.Text, schema.Clob, schema.NClob,
		schema.Boolean, schema.Bit,
		schema.Date, schema.Time, schema.Timestamp, schema.TimeWithTimezone, schema.TimestampWithTimezone,
		schema.UUID:
		return true
	}
	return false
}

// IsInteger reports whether tag holds whole numbers.
func IsInteger(tag schema.TypeTag) bool {
	switch tag {
	case schema.TinyInt, schema.SmallInt, schema.Integer, schema.BigInt:
		return true
	}
	return false
}

func buildColumn(def ColumnDef, tables map[string]*schema.Table) (schema.Field, error) {
	tag, err := schema.ParseTypeTag(def.Type)
	if err != nil {
		return nil, err
	}

	switch tag {
	case schema.TinyInt:
		return build(schema.ColumnOf[int8](tag), def, tables)
	case schema.SmallInt:
		return build(schema.ColumnOf[int16](tag), def, tables)
	case schema.Integer:
		return build(schema.ColumnOf[int32](tag), def, tables)
	case schema.BigInt:
		return build(schema.ColumnOf[int64](tag), def, tables)
	case schema.Real:
		return build(schema.ColumnOf[float32](tag), def, tables)
	case schema.Float, schema.Double, schema.Decimal, schema.Numeric:
		return build(schema.ColumnOf[float64](tag), def, tables)
	case schema.Char, schema.Varchar, schema.NChar, schema.NVarchar,
		schema.LongVarchar, schema.LongNVarchar, schema.Text, schema.Clob, schema.NClob:
		return build(schema.ColumnOf[string](tag), def, tables)
	case schema.Boolean, schema.Bit:
		return build(schema.BoolColumn(tag), def, tables)
	case schema.Date, schema.Time, schema.Timestamp, schema.TimeWithTimezone, schema.TimestampWithTimezone:
		return build(schema.TimeColumn(tag), def, tables)
	case schema.UUID:
		return build(schema.UUIDColumn(tag), def, tables)
	}
	return nil, fmt.Errorf("type %s is not supported", tag)
}

func build[T any](b schema.ColumnBuilder[T], def ColumnDef, tables map[string]*schema.Table) (schema.Field, error) {
	b = b.Name(def.Name).
		Length(def.Length).
		PrimaryKey(def.Primary).
		Nullable(def.Nullable).
		AutoIncrement(def.AutoIncrement)

	if ref := def.References; ref != nil {
		target := tables[ref.Table]
		if target == nil {
			return nil, fmt.Errorf("referenced table %s is not built", ref.Table)
		}
		field := target.Column(ref.Column)
		if field == nil {
			return nil, fmt.Errorf("table %s has no column %s", ref.Table, ref.Column)
		}
		typed, ok := field.(*schema.Column[T])
		if !ok {
			return nil, fmt.Errorf("type %s does not match %s.%s (%s)", def.Type, ref.Table, ref.Column, field.Type())
		}
		b = b.References(schema.References(target, typed))
	}

	col, err := b.Build()
	if err != nil {
		return nil, err
	}
	return col, nil
}

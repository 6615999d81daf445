package loader

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// TagLoader reads table definitions from Go structs whose fields carry a
// `rowmap` tag, without compiling or importing the package.
type TagLoader struct {
	modelsDir string
}

// NewTagLoader creates a new tag loader
func NewTagLoader(modelsDir string) *TagLoader {
	return &TagLoader{
		modelsDir: modelsDir,
	}
}

// LoadTags loads table definitions from every .go file under modelsDir.
func LoadTags(modelsDir string) ([]TableDef, error) {
	return NewTagLoader(modelsDir).Load()
}

// Load walks the models directory. Tables come back sorted by name.
func (tl *TagLoader) Load() ([]TableDef, error) {
	if _, err := os.Stat(tl.modelsDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("models directory '%s' does not exist", tl.modelsDir)
	}

	var tables []TableDef
	err := filepath.Walk(tl.modelsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		fileTables, err := tl.ParseSource(path, src)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		tables = append(tables, fileTables...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load models: %w", err)
	}

	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	return tables, nil
}

// ParseSource extracts table definitions from one Go source file.
func (tl *TagLoader) ParseSource(filename string, src []byte) ([]TableDef, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Go file: %w", err)
	}

	var tables []TableDef
	var parseErr error
	ast.Inspect(node, func(n ast.Node) bool {
		spec, ok := n.(*ast.TypeSpec)
		if !ok || parseErr != nil {
			return true
		}
		structType, ok := spec.Type.(*ast.StructType)
		if !ok {
			return true
		}
		table, err := tl.parseStruct(spec.Name.Name, structType)
		if err != nil {
			parseErr = fmt.Errorf("%s: %w", spec.Name.Name, err)
			return false
		}
		if table != nil {
			tables = append(tables, *table)
		}
		return true
	})
	return tables, parseErr
}

// parseStruct returns nil for structs with no tagged fields.
func (tl *TagLoader) parseStruct(structName string, structType *ast.StructType) (*TableDef, error) {
	table := &TableDef{Name: tl.getTableName(structName)}

	for _, field := range structType.Fields.List {
		if len(field.Names) == 0 || field.Tag == nil {
			continue
		}
		fieldName := field.Names[0].Name
		if !ast.IsExported(fieldName) {
			continue
		}

		raw, err := strconv.Unquote(field.Tag.Value)
		if err != nil {
			return nil, fmt.Errorf("field %s: bad tag: %w", fieldName, err)
		}
		tag, ok := reflect.StructTag(raw).Lookup("rowmap")
		if !ok || tag == "-" {
			continue
		}
		if tableName, isTable := strings.CutPrefix(tag, "table:"); isTable && fieldName == "TableName" {
			table.Name = tableName
			continue
		}

		col, err := tl.parseTag(tag)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fieldName, err)
		}
		if col.Name == "" {
			col.Name = toSnakeCase(fieldName)
		}
		if col.Type == "" {
			col.Type = inferType(tl.getFieldType(field.Type))
		}
		if _, pointer := field.Type.(*ast.StarExpr); pointer {
			col.Nullable = true
		}
		table.Columns = append(table.Columns, col)
	}

	if len(table.Columns) == 0 {
		return nil, nil
	}
	return table, nil
}

// parseTag parses "column:id;type:INTEGER;length:50;primary;auto_increment;nullable;fk:users.id".
func (tl *TagLoader) parseTag(tag string) (ColumnDef, error) {
	var col ColumnDef
	for _, part := range strings.Split(tag, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, hasValue := strings.Cut(part, ":")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if hasValue {
			switch key {
			case "column":
				col.Name = value
			case "type":
				col.Type = value
			case "length":
				n, err := strconv.Atoi(value)
				if err != nil {
					return col, fmt.Errorf("bad length %q", value)
				}
				col.Length = n
			case "fk":
				table, column, ok := strings.Cut(value, ".")
				if !ok || table == "" || column == "" {
					return col, fmt.Errorf("foreign key %q must be table.column", value)
				}
				col.References = &Reference{Table: table, Column: column}
			default:
				return col, fmt.Errorf("unknown tag key %q", key)
			}
			continue
		}

		switch key {
		case "primary":
			col.Primary = true
		case "nullable":
			col.Nullable = true
		case "auto_increment":
			col.AutoIncrement = true
		default:
			return col, fmt.Errorf("unknown tag flag %q", key)
		}
	}
	return col, nil
}

// getFieldType extracts the Go type name from an ast.Expr
func (tl *TagLoader) getFieldType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return tl.getFieldType(t.X)
	case *ast.ArrayType:
		return "[]" + tl.getFieldType(t.Elt)
	case *ast.SelectorExpr:
		if x, ok := t.X.(*ast.Ident); ok {
			return x.Name + "." + t.Sel.Name
		}
	}
	return ""
}

// getTableName converts struct name to table name
func (tl *TagLoader) getTableName(structName string) string {
	tableName := toSnakeCase(structName)

	// Simple pluralization rules
	if strings.HasSuffix(tableName, "y") {
		tableName = strings.TrimSuffix(tableName, "y") + "ies"
	} else if !strings.HasSuffix(tableName, "s") {
		tableName += "s"
	}

	return tableName
}

// inferType maps a Go type to the SQL type the column builder expects for it.
func inferType(goType string) string {
	switch goType {
	case "int8":
		return "TINYINT"
	case "int16":
		return "SMALLINT"
	case "int", "int32":
		return "INTEGER"
	case "int64":
		return "BIGINT"
	case "float32":
		return "REAL"
	case "float64":
		return "DOUBLE"
	case "bool":
		return "BOOLEAN"
	case "time.Time":
		return "TIMESTAMP"
	case "uuid.UUID":
		return "UUID"
	}
	return "TEXT"
}

// toSnakeCase converts PascalCase to snake_case
func toSnakeCase(s string) string {
	var b strings.Builder
	var prev rune
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' && prev >= 'a' && prev <= 'z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
		prev = r
	}
	return strings.ToLower(b.String())
}

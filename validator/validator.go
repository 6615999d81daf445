package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/ridoystarlord/rowmap/loader"
	"github.com/ridoystarlord/rowmap/schema"
)

// ValidationError represents a validation error with details
type ValidationError struct {
	Type     string `json:"type"`
	Table    string `json:"table,omitempty"`
	Column   string `json:"column,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // "error", "warning", "info"
}

// ValidationResult contains all validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
	Info     []ValidationError `json:"info"`
}

func newResult() *ValidationResult {
	return &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
		Info:     []ValidationError{},
	}
}

func (r *ValidationResult) addError(typ, table, column, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{
		Type: typ, Table: table, Column: column,
		Message: fmt.Sprintf(format, args...), Severity: "error",
	})
}

func (r *ValidationResult) addWarning(typ, table, column, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationError{
		Type: typ, Table: table, Column: column,
		Message: fmt.Sprintf(format, args...), Severity: "warning",
	})
}

// SchemaValidator checks table definitions before they are built into tables.
// With a driver it also reports which tables already exist.
type SchemaValidator struct {
	db schema.Driver
}

// NewSchemaValidator creates a validator. db may be nil.
func NewSchemaValidator(db schema.Driver) *SchemaValidator {
	return &SchemaValidator{db: db}
}

var reservedKeywords = []string{"user", "order", "group", "table", "index", "view", "schema", "select", "from", "where", "join"}

// ValidateSchema validates definitions and, when the validator has a driver,
// notes tables that are already present in the database.
func (v *SchemaValidator) ValidateSchema(ctx context.Context, tables []loader.TableDef) (*ValidationResult, error) {
	result := v.ValidateSchemaWithoutDB(tables)
	if v.db == nil {
		return result, nil
	}

	conn, err := v.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	for _, table := range tables {
		if table.Name == "" {
			continue
		}
		exists, err := conn.TableExists(ctx, table.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to check table %s: %w", table.Name, err)
		}
		if exists {
			result.Info = append(result.Info, ValidationError{
				Type:     "table_exists",
				Table:    table.Name,
				Message:  fmt.Sprintf("Table '%s' already exists in database", table.Name),
				Severity: "info",
			})
		}
	}
	return result, nil
}

// ValidateSchemaWithoutDB validates a schema without database connection
func (v *SchemaValidator) ValidateSchemaWithoutDB(tables []loader.TableDef) *ValidationResult {
	result := newResult()

	seen := make(map[string]bool)
	for _, table := range tables {
		if err := validateName("table", table.Name); err != nil {
			result.addError("table_name", table.Name, "", "%s", err)
		}
		if table.Name != "" && seen[table.Name] {
			result.addError("duplicate_table", table.Name, "", "Table '%s' is defined more than once", table.Name)
		}
		seen[table.Name] = true

		v.validateColumns(table, result)
	}

	v.validateCrossTableConstraints(tables, result)

	result.Valid = len(result.Errors) == 0
	return result
}

// validateName checks identifier format
func validateName(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s name cannot be empty", kind)
	}

	if len(name) > 63 {
		return fmt.Errorf("%s name '%s' is too long (max 63 characters)", kind, name)
	}

	for _, char := range name {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '_') {
			return fmt.Errorf("%s name '%s' contains invalid character '%c'", kind, name, char)
		}
	}

	for _, keyword := range reservedKeywords {
		if strings.ToLower(name) == keyword {
			return fmt.Errorf("%s name '%s' is a reserved keyword", kind, name)
		}
	}

	return nil
}

// validateColumns validates all columns in a table
func (v *SchemaValidator) validateColumns(table loader.TableDef, result *ValidationResult) {
	if len(table.Columns) == 0 {
		result.addError("no_columns", table.Name, "", "Table '%s' must have at least one column", table.Name)
		return
	}

	columnNames := make(map[string]bool)
	hasPrimaryKey := false

	for _, column := range table.Columns {
		if columnNames[column.Name] {
			result.addError("duplicate_column", table.Name, column.Name,
				"Duplicate column name '%s' in table '%s'", column.Name, table.Name)
			continue
		}
		columnNames[column.Name] = true

		if err := validateName("column", column.Name); err != nil {
			result.addError("column_name", table.Name, column.Name, "%s", err)
		}
		if column.Length < 0 {
			result.addError("length", table.Name, column.Name, "Column '%s' has a negative length", column.Name)
		}

		tag, err := schema.ParseTypeTag(column.Type)
		switch {
		case err != nil:
			result.addError("data_type", table.Name, column.Name, "unsupported data type '%s'", column.Type)
		case !loader.Supported(tag):
			result.addError("data_type", table.Name, column.Name, "data type '%s' has no column mapping", tag)
		case column.AutoIncrement && !loader.IsInteger(tag):
			result.addError("auto_increment", table.Name, column.Name,
				"auto_increment requires an integer type, got '%s'", tag)
		}

		if column.Primary {
			hasPrimaryKey = true
			if column.Nullable {
				result.addError("nullable_primary_key", table.Name, column.Name,
					"Primary key column '%s' cannot be nullable", column.Name)
			}
		}
		if column.AutoIncrement && !column.Primary {
			result.addWarning("auto_increment", table.Name, column.Name,
				"Column '%s' is auto_increment but not part of the primary key", column.Name)
		}

		if ref := column.References; ref != nil {
			if ref.Table == "" || ref.Column == "" {
				result.addError("foreign_key", table.Name, column.Name, "foreign key must name a table and a column")
			} else if ref.Table == table.Name {
				result.addError("foreign_key", table.Name, column.Name, "foreign key cannot reference its own table")
			}
		}
	}

	if !hasPrimaryKey {
		result.addWarning("no_primary_key", table.Name, "",
			"Table '%s' has no primary key defined; rows can be inserted but not updated, reloaded or deleted", table.Name)
	}
}

// validateCrossTableConstraints validates constraints across tables
func (v *SchemaValidator) validateCrossTableConstraints(tables []loader.TableDef, result *ValidationResult) {
	columnMap := make(map[string]map[string]loader.ColumnDef)
	for _, table := range tables {
		columnMap[table.Name] = make(map[string]loader.ColumnDef)
		for _, column := range table.Columns {
			columnMap[table.Name][column.Name] = column
		}
	}

	for _, table := range tables {
		for _, column := range table.Columns {
			ref := column.References
			if ref == nil || ref.Table == "" || ref.Column == "" || ref.Table == table.Name {
				continue
			}

			columns, exists := columnMap[ref.Table]
			if !exists {
				result.addError("foreign_key_table_not_found", table.Name, column.Name,
					"Foreign key references non-existent table '%s'", ref.Table)
				continue
			}

			target, exists := columns[ref.Column]
			if !exists {
				result.addError("foreign_key_column_not_found", table.Name, column.Name,
					"Foreign key references non-existent column '%s' in table '%s'", ref.Column, ref.Table)
				continue
			}

			if !sameType(column.Type, target.Type) {
				result.addError("foreign_key_type", table.Name, column.Name,
					"Foreign key type '%s' does not match %s.%s type '%s'", column.Type, ref.Table, ref.Column, target.Type)
			}
			if !target.Primary {
				result.addWarning("foreign_key_target", table.Name, column.Name,
					"Foreign key target %s.%s is not a primary key", ref.Table, ref.Column)
			}
		}
	}

	if _, err := loader.Order(tables); err != nil && strings.Contains(err.Error(), "cycle") {
		result.addError("foreign_key_cycle", "", "", "%s", err)
	}
}

func sameType(a, b string) bool {
	ta, errA := schema.ParseTypeTag(a)
	tb, errB := schema.ParseTypeTag(b)
	if errA != nil || errB != nil {
		return true
	}
	return ta == tb
}

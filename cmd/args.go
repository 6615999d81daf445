package cmd

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/rowmap/schema"
)

// condition is one "column<op>value" argument.
type condition struct {
	column string
	kind   schema.Comparison
	value  string
}

// longest operators first so ">=" is not read as ">"
var operators = []string{">=", "<=", "!=", "<>", "=", ">", "<"}

func parseCondition(arg string) (condition, error) {
	for i := 0; i < len(arg); i++ {
		for _, op := range operators {
			if !strings.HasPrefix(arg[i:], op) {
				continue
			}
			column := strings.TrimSpace(arg[:i])
			if column == "" {
				return condition{}, fmt.Errorf("condition %q has no column", arg)
			}
			kind, err := schema.ParseComparison(op)
			if err != nil {
				return condition{}, err
			}
			return condition{column: column, kind: kind, value: strings.TrimSpace(arg[i+len(op):])}, nil
		}
	}
	return condition{}, fmt.Errorf("condition %q has no operator", arg)
}

// parseAssignments reads "column=value" arguments in order.
func parseAssignments(args []string) ([]condition, error) {
	out := make([]condition, 0, len(args))
	for _, arg := range args {
		c, err := parseCondition(arg)
		if err != nil {
			return nil, err
		}
		if c.kind != schema.Equal {
			return nil, fmt.Errorf("assignment %q must use '='", arg)
		}
		out = append(out, c)
	}
	return out, nil
}

// assign sets each column on row. Values are parsed as database text, so
// "42" fills an INTEGER column and "true" a BOOLEAN one.
func assign(row *schema.Table, values []condition) error {
	for _, v := range values {
		if row.Column(v.column) == nil {
			return fmt.Errorf("table '%s' has no column '%s'", row.Name(), v.column)
		}
		if err := row.Set(v.column, []byte(v.value)); err != nil {
			return fmt.Errorf("column '%s': %w", v.column, err)
		}
	}
	return nil
}

// conditionFields turns conditions into value-carrying column clones.
func conditionFields(table *schema.Table, conds []condition) ([]schema.Field, []schema.Comparison, error) {
	fields := make([]schema.Field, len(conds))
	kinds := make([]schema.Comparison, len(conds))
	for i, c := range conds {
		col := table.Column(c.column)
		if col == nil {
			return nil, nil, fmt.Errorf("table '%s' has no column '%s'", table.Name(), c.column)
		}
		f, err := col.CloneWith([]byte(c.value))
		if err != nil {
			return nil, nil, fmt.Errorf("column '%s': %w", c.column, err)
		}
		fields[i] = f
		kinds[i] = c.kind
	}
	return fields, kinds, nil
}

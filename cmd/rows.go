package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/rowmap/database"
	"github.com/ridoystarlord/rowmap/loader"
	"github.com/ridoystarlord/rowmap/schema"
)

var (
	queryWhere []string
	queryOr    bool
	queryJoin  []string
	queryFirst bool
	queryShow  bool
)

var queryCmd = &cobra.Command{
	Use:   "query <table>",
	Short: "Select rows from a table",
	Long: `Select rows from a table. Conditions are column<op>value with op one of
=, !=, <>, >, <, >=, <=. Conditions are AND-ed unless --or is given.
--join adds a join on the foreign key between the table and the named one.

Examples:
  rowmap query users
  rowmap query users --where "id>=2" --where "name!=bob"
  rowmap query orders --join users --where "total>10" --first
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		return withTable(ctx, args[0], func(s *loader.Schema, table *schema.Table, db database.DB) error {
			q, err := buildQuery(ctx, s, table, db)
			if err != nil {
				return err
			}
			if queryShow {
				color.Cyan("%s", q)
			}

			var rows []*schema.Table
			if queryFirst {
				row, found, err := q.First(ctx)
				if err != nil {
					return err
				}
				if found {
					rows = append(rows, row)
				}
			} else if rows, err = q.All(ctx); err != nil {
				return err
			}
			printRows(os.Stdout, table, rows)
			return nil
		})
	},
}

var insertCmd = &cobra.Command{
	Use:   "insert <table> column=value...",
	Short: "Insert a row",
	Long: `Insert a row built from column=value pairs. Generated keys are printed.

Examples:
  rowmap insert users name=alice
`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := parseAssignments(args[1:])
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)
		return withTable(ctx, args[0], func(_ *loader.Schema, table *schema.Table, db database.DB) error {
			row := table.NewRow()
			if err := assign(row, values); err != nil {
				return err
			}
			if err := row.Commit(ctx, db); err != nil {
				return err
			}
			color.Green("✅ Inserted into %s", table.Name())
			printRows(os.Stdout, row, []*schema.Table{row})
			return nil
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <table> key=value... column=value...",
	Short: "Update a row found by primary key",
	Long: `Load a row by its primary key columns, apply the remaining column=value
pairs, and write back only the columns that changed.

Examples:
  rowmap update users id=1 name=bob
`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := parseAssignments(args[1:])
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)
		return withTable(ctx, args[0], func(_ *loader.Schema, table *schema.Table, db database.DB) error {
			keys, rest := splitKeys(table, values)
			row := table.NewRow()
			if err := assign(row, keys); err != nil {
				return err
			}
			found, err := row.Update(ctx, db)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no %s row matches %s", table.Name(), describe(keys))
			}
			if err := assign(row, rest); err != nil {
				return err
			}
			changed := len(row.ChangedColumns())
			if err := row.Commit(ctx, db); err != nil {
				return err
			}
			if changed == 0 {
				color.Yellow("⚠️  Nothing to update in %s", table.Name())
			} else {
				color.Green("✅ Updated %d column(s) in %s", changed, table.Name())
			}
			printRows(os.Stdout, row, []*schema.Table{row})
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <table> key=value...",
	Short: "Delete a row by primary key",
	Long: `Delete the row whose primary key columns match the given values.

Examples:
  rowmap delete users id=3
`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := parseAssignments(args[1:])
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)
		return withTable(ctx, args[0], func(_ *loader.Schema, table *schema.Table, db database.DB) error {
			row := table.NewRow()
			if err := assign(row, values); err != nil {
				return err
			}
			if err := row.Delete(ctx, db); err != nil {
				return err
			}
			color.Yellow("🗑️  Deleted from %s where %s", table.Name(), describe(values))
			return nil
		})
	},
}

func init() {
	queryCmd.Flags().StringArrayVarP(&queryWhere, "where", "w", nil, "Condition column<op>value (repeatable)")
	queryCmd.Flags().BoolVar(&queryOr, "or", false, "Join conditions with OR instead of AND")
	queryCmd.Flags().StringArrayVarP(&queryJoin, "join", "j", nil, "Join a table related by foreign key (repeatable)")
	queryCmd.Flags().BoolVar(&queryFirst, "first", false, "Return only the first row")
	queryCmd.Flags().BoolVar(&queryShow, "show-sql", false, "Print the generated SELECT")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func buildQuery(ctx context.Context, s *loader.Schema, table *schema.Table, db schema.Driver) (*schema.Query, error) {
	conds := make([]condition, len(queryWhere))
	for i, w := range queryWhere {
		c, err := parseCondition(w)
		if err != nil {
			return nil, err
		}
		conds[i] = c
	}
	fields, kinds, err := conditionFields(table, conds)
	if err != nil {
		return nil, err
	}

	q, err := table.Query(ctx, db)
	if err != nil {
		return nil, err
	}
	for _, name := range queryJoin {
		other := s.Table(name)
		if other == nil {
			return nil, fmt.Errorf("table '%s' is not in the schema", name)
		}
		if err := joinByForeignKey(q, table, other); err != nil {
			return nil, err
		}
	}

	rel := schema.And
	if queryOr {
		rel = schema.Or
	}
	q.FilterAll(rel, fields, kinds)
	return q, q.Err()
}

// joinByForeignKey joins other onto base using the foreign keys between
// them, in whichever direction they point.
func joinByForeignKey(q *schema.Query, base, other *schema.Table) error {
	joined := false
	for _, c := range base.Columns() {
		if fk := c.ForeignKey(); fk != nil && fk.TableName() == other.Name() {
			q.JoinColumn(other, other.Column(fk.Target().Name()), schema.Equal, base, c)
			joined = true
		}
	}
	for _, c := range other.Columns() {
		if fk := c.ForeignKey(); fk != nil && fk.TableName() == base.Name() {
			q.JoinColumn(other, c, schema.Equal, base, base.Column(fk.Target().Name()))
			joined = true
		}
	}
	if !joined {
		return fmt.Errorf("no foreign key links %s and %s", base.Name(), other.Name())
	}
	return nil
}

// splitKeys separates primary key assignments from the rest.
func splitKeys(table *schema.Table, values []condition) (keys, rest []condition) {
	for _, v := range values {
		if c := table.Column(v.column); c != nil && c.PrimaryKey() {
			keys = append(keys, v)
		} else {
			rest = append(rest, v)
		}
	}
	return keys, rest
}

func describe(values []condition) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.column + "=" + v.value
	}
	return strings.Join(parts, ", ")
}

func printRows(w io.Writer, table *schema.Table, rows []*schema.Table) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "📭 No rows")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	cols := table.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = strings.ToUpper(c.Name())
	}
	fmt.Fprintln(tw, strings.Join(names, "\t"))
	for _, row := range rows {
		values := make([]string, len(cols))
		for i, c := range row.Columns() {
			values[i] = formatValue(c)
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}
	tw.Flush()
	fmt.Fprintf(w, "📊 %d row(s)\n", len(rows))
}

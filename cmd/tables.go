package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/rowmap/schema"
)

var createCmd = &cobra.Command{
	Use:   "create [table...]",
	Short: "Create tables that do not exist yet",
	Long: `Issue CREATE TABLE IF NOT EXISTS for the named tables, or for every table
in the schema. Referenced tables are created first.

Examples:
  rowmap create
  rowmap create users orders
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnTables(cmd.Context(), args, false, func(ctx context.Context, t *schema.Table, db schema.Driver) error {
			if err := t.CreateTable(ctx, db); err != nil {
				return err
			}
			color.Green("✅ Created %s", t.Name())
			return nil
		})
	},
}

var dropCmd = &cobra.Command{
	Use:   "drop [table...]",
	Short: "Drop tables if they exist",
	Long: `Issue DROP TABLE IF EXISTS ... CASCADE for the named tables, or for every
table in the schema. Referencing tables are dropped first.

Examples:
  rowmap drop orders
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnTables(cmd.Context(), args, true, func(ctx context.Context, t *schema.Table, db schema.Driver) error {
			if err := t.Drop(ctx, db); err != nil {
				return err
			}
			color.Yellow("🗑️  Dropped %s", t.Name())
			return nil
		})
	},
}

var existsCmd = &cobra.Command{
	Use:   "exists [table...]",
	Short: "Report whether tables exist in the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnTables(cmd.Context(), args, false, func(ctx context.Context, t *schema.Table, db schema.Driver) error {
			ok, err := t.Exists(ctx, db)
			if err != nil {
				return err
			}
			if ok {
				color.Green("✅ %s exists", t.Name())
			} else {
				color.Red("❌ %s does not exist", t.Name())
			}
			return nil
		})
	},
}

var sqlDrop bool

var sqlCmd = &cobra.Command{
	Use:   "sql [table...]",
	Short: "Print the DDL generated for tables",
	Long: `Print the CREATE (or, with --drop, DROP) statement for the named tables or
every table in the schema. No database connection is needed.

Examples:
  rowmap sql
  rowmap sql users --drop
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSchema()
		if err != nil {
			return err
		}
		tables, err := selectTables(s, args)
		if err != nil {
			return err
		}
		if sqlDrop {
			slices.Reverse(tables)
		}
		for i, t := range tables {
			if i > 0 {
				fmt.Println()
			}
			color.Cyan("-- %s", t.Name())
			if sqlDrop {
				fmt.Println(t.DropSQL() + ";")
			} else {
				fmt.Println(t.CreateSQL())
			}
		}
		return nil
	},
}

func init() {
	sqlCmd.Flags().BoolVar(&sqlDrop, "drop", false, "Print DROP statements instead of CREATE")
}

// runOnTables connects once and applies fn to the selected tables, in
// reverse dependency order when reverse is set.
func runOnTables(ctx context.Context, names []string, reverse bool, fn func(context.Context, *schema.Table, schema.Driver) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := loadSchema()
	if err != nil {
		return err
	}
	tables, err := selectTables(s, names)
	if err != nil {
		return err
	}
	if reverse {
		slices.Reverse(tables)
	}

	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, t := range tables {
		if err := fn(ctx, t, db); err != nil {
			return err
		}
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ridoystarlord/rowmap/database"
	"github.com/ridoystarlord/rowmap/loader"
	"github.com/ridoystarlord/rowmap/schema"
)

func loadSchema() (*loader.Schema, error) {
	defs, err := loader.Load(cfg.SchemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	s, err := loader.Build(schema.NewRegistry(), defs)
	if err != nil {
		return nil, fmt.Errorf("failed to build schema: %w", err)
	}
	return s, nil
}

func openDatabase(ctx context.Context) (database.DB, error) {
	url, err := cfg.GetDatabaseURL()
	if err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, cfg.Driver, url, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// selectTables returns the named tables, or every table when names is empty,
// in dependency order.
func selectTables(s *loader.Schema, names []string) ([]*schema.Table, error) {
	if len(names) == 0 {
		return s.Tables(), nil
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if s.Table(name) == nil {
			return nil, fmt.Errorf("table '%s' is not in the schema (have: %s)", name, strings.Join(s.Names(), ", "))
		}
		wanted[name] = true
	}
	var tables []*schema.Table
	for _, t := range s.Tables() {
		if wanted[t.Name()] {
			tables = append(tables, t)
		}
	}
	return tables, nil
}

func lookupTable(s *loader.Schema, name string) (*schema.Table, error) {
	tables, err := selectTables(s, []string{name})
	if err != nil {
		return nil, err
	}
	return tables[0], nil
}

// withTable loads the schema, connects, and runs fn against the named table.
func withTable(ctx context.Context, name string, fn func(*loader.Schema, *schema.Table, database.DB) error) error {
	s, err := loadSchema()
	if err != nil {
		return err
	}
	table, err := lookupTable(s, name)
	if err != nil {
		return err
	}
	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(s, table, db)
}

func formatValue(c schema.Field) string {
	v, ok := c.Value()
	if !ok {
		return "NULL"
	}
	return fmt.Sprint(v)
}

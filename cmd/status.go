package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/rowmap/loader"
	"github.com/ridoystarlord/rowmap/schema"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which schema tables exist in the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		s, err := loadSchema()
		if err != nil {
			return err
		}
		db, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		present, missing, err := tableStatus(ctx, s, db)
		if err != nil {
			return err
		}

		color.Green("✅ Present tables:")
		for _, name := range present {
			fmt.Println("   -", name)
		}
		fmt.Println("\n🕒 Missing tables:")
		for _, name := range missing {
			fmt.Println("   -", name)
		}
		return nil
	},
}

// tableStatus splits the schema's tables by whether the database has them.
func tableStatus(ctx context.Context, s *loader.Schema, db schema.Driver) (present, missing []string, err error) {
	for _, t := range s.Tables() {
		ok, err := t.Exists(ctx, db)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			present = append(present, t.Name())
		} else {
			missing = append(missing, t.Name())
		}
	}
	return present, missing, nil
}

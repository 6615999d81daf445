package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/rowmap/database"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database connectivity",
	Long: `Check if the database is accessible and responsive.

Examples:
  rowmap health                    # Check default database connection
  rowmap health --timeout 10s      # Set custom timeout
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkDatabaseHealth(); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
		color.Green("✅ Database is healthy and accessible")
		return nil
	},
}

var healthTimeout time.Duration

func init() {
	healthCmd.Flags().DurationVarP(&healthTimeout, "timeout", "t", 5*time.Second, "Timeout for health check")
}

func checkDatabaseHealth() error {
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()

	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Ping(ctx, db); err != nil {
		return err
	}
	fmt.Printf("🔌 Driver: %s\n", db.Name())

	s, err := loadSchema()
	if err != nil {
		fmt.Printf("⚠️  Database is accessible but the schema could not be loaded: %v\n", err)
		return nil
	}

	present, missing, err := tableStatus(ctx, s, db)
	if err != nil {
		return err
	}
	fmt.Printf("📊 %d of %d schema tables present\n", len(present), len(present)+len(missing))
	if len(missing) > 0 {
		fmt.Println("   Run 'rowmap create' to create the missing tables")
	}
	return nil
}

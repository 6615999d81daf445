package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/rowmap/logging"
	"github.com/ridoystarlord/rowmap/utils"
)

var (
	cfg utils.Config

	schemaFlag string
	driverFlag string
	urlFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "rowmap",
	Short: "Typed table rows over SQL databases",
	Long: `rowmap builds tables from a schema file and reads and writes their rows.

Examples:

  rowmap sql                          # print CREATE statements
  rowmap create                       # create every table in schema.yaml
  rowmap insert users name=alice
  rowmap query users --where "id>=2"
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = utils.LoadConfig()
		if schemaFlag != "" {
			cfg.SchemaFile = schemaFlag
		}
		if driverFlag != "" {
			cfg.Driver = driverFlag
		}
		if urlFlag != "" {
			cfg.DatabaseURL = urlFlag
		}
		if _, err := logging.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
			return fmt.Errorf("configure logging: %w", err)
		}
		return nil
	},
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

// Register subcommands
func init() {
	rootCmd.PersistentFlags().StringVarP(&schemaFlag, "schema", "s", "", "Schema file or models directory (default $ROWMAP_SCHEMA or schema.yaml)")
	rootCmd.PersistentFlags().StringVar(&driverFlag, "driver", "", "Database driver: postgres, mysql or sqlite (default inferred from the URL)")
	rootCmd.PersistentFlags().StringVar(&urlFlag, "url", "", "Database URL (default $DATABASE_URL)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(existsCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(insertCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/rowmap/loader"
	"github.com/ridoystarlord/rowmap/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the schema before building tables",
	Long: `Validate your schema file (or models directory) before it is built into tables.

This command checks:
- Table and column naming (identifier rules, reserved keywords)
- Column types (known SQL types with a value mapping)
- Primary keys and auto_increment columns
- Foreign key references, types and cycles
- Existing tables (when DATABASE_URL is set)

Examples:
  rowmap validate                       # Validate schema.yaml (offline)
  rowmap validate --schema models/      # Validate tagged Go structs
  rowmap validate --format json         # Output validation results as JSON
  DATABASE_URL=postgres://... rowmap validate  # Online validation
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := validateSchema(cmd.Context())
		if err != nil {
			return fmt.Errorf("schema validation failed: %w", err)
		}
		if validateFormat == "json" {
			err = outputJSON(result)
		} else {
			outputText(result)
		}
		if err != nil {
			return err
		}
		if !result.Valid {
			return fmt.Errorf("schema has %d errors", len(result.Errors))
		}
		return nil
	},
}

var validateFormat string

func init() {
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "Output format (text, json)")
}

func validateSchema(ctx context.Context) (*validator.ValidationResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	defs, err := loader.Load(cfg.SchemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	if cfg.DatabaseURL == "" {
		slog.Debug("DATABASE_URL not set, using offline schema validation")
		return validator.NewSchemaValidator(nil).ValidateSchemaWithoutDB(defs), nil
	}

	db, err := openDatabase(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return validator.NewSchemaValidator(db).ValidateSchema(ctx, defs)
}

func outputJSON(result *validator.ValidationResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func printIssues(heading string, issues []validator.ValidationError) {
	if len(issues) == 0 {
		return
	}
	fmt.Printf("\n%s (%d):\n", heading, len(issues))
	for i, issue := range issues {
		fmt.Printf("  %d. ", i+1)
		if issue.Table != "" {
			fmt.Printf("[%s]", issue.Table)
		}
		if issue.Column != "" {
			fmt.Printf(".%s", issue.Column)
		}
		fmt.Printf(": %s\n", issue.Message)
	}
}

func outputText(result *validator.ValidationResult) {
	if result.Valid {
		color.Green("✅ Schema validation passed!")
	} else {
		color.Red("❌ Schema validation failed!")
	}

	printIssues("🔴 Errors", result.Errors)
	printIssues("🟡 Warnings", result.Warnings)
	printIssues("🔵 Info", result.Info)

	fmt.Printf("\n📊 Summary:\n")
	fmt.Printf("  • Errors: %d\n", len(result.Errors))
	fmt.Printf("  • Warnings: %d\n", len(result.Warnings))
	fmt.Printf("  • Info: %d\n", len(result.Info))

	if result.Valid {
		fmt.Printf("\n🎉 Your schema is valid and ready to create!\n")
	} else {
		fmt.Printf("\n💡 Fix the errors above before creating tables.\n")
	}
}

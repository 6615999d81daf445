package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/rowmap/loader"
)

var (
	useStructs bool
	initDir    string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new rowmap project",
	Long: `Initialize a new rowmap project with a starter schema and a .env file.

Default: YAML schema file (schema.yaml)
Alternative: Go structs with rowmap tags (--structs), read from models/

Examples:
  rowmap init                    # Write schema.yaml and .env
  rowmap init --structs          # Write models/models.go and .env`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if useStructs {
			if err := writeStarterModels(initDir); err != nil {
				return err
			}
			color.Green("✅ Models directory created successfully!")
			fmt.Println("📝 Edit the structs in models/models.go to define your tables")
			fmt.Println("🚀 Run 'rowmap create --schema models' to create them")
		} else {
			if err := writeStarterYAML(initDir); err != nil {
				return err
			}
			color.Green("✅ Created schema.yaml example file.")
			fmt.Println("📝 Edit schema.yaml to define your tables")
			fmt.Println("🚀 Run 'rowmap create' to create them")
		}

		created, err := writeEnvFile(initDir)
		if err != nil {
			return err
		}
		if created {
			fmt.Println("🔧 Created .env; set DATABASE_URL before connecting")
		}
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&useStructs, "structs", false, "Use Go structs instead of schema.yaml")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "Project directory")
}

// starterTables is the example schema written by init.
func starterTables() []loader.TableDef {
	return []loader.TableDef{
		{Name: "users", Columns: []loader.ColumnDef{
			{Name: "id", Type: "INTEGER", Primary: true, AutoIncrement: true},
			{Name: "email", Type: "VARCHAR", Length: 255},
			{Name: "name", Type: "VARCHAR", Length: 100},
			{Name: "created_at", Type: "TIMESTAMP", Nullable: true},
		}},
		{Name: "posts", Columns: []loader.ColumnDef{
			{Name: "id", Type: "INTEGER", Primary: true, AutoIncrement: true},
			{Name: "title", Type: "VARCHAR", Length: 200},
			{Name: "body", Type: "TEXT", Nullable: true},
			{Name: "published", Type: "BOOLEAN"},
			{Name: "user_id", Type: "INTEGER", References: &loader.Reference{Table: "users", Column: "id"}},
		}},
	}
}

const starterModels = `package models

import "time"

// User represents a user in the system
type User struct {
	ID        int32      ` + "`rowmap:\"primary;auto_increment\"`" + `
	Email     string     ` + "`rowmap:\"type:VARCHAR;length:255\"`" + `
	Name      string     ` + "`rowmap:\"type:VARCHAR;length:100\"`" + `
	CreatedAt *time.Time ` + "`rowmap:\"\"`" + `
}

// Post represents a blog post
type Post struct {
	ID        int32   ` + "`rowmap:\"primary;auto_increment\"`" + `
	Title     string  ` + "`rowmap:\"type:VARCHAR;length:200\"`" + `
	Body      *string ` + "`rowmap:\"\"`" + `
	Published bool    ` + "`rowmap:\"\"`" + `
	UserID    int32   ` + "`rowmap:\"fk:users.id\"`" + `
}
`

func writeStarterYAML(dir string) error {
	path := filepath.Join(dir, "schema.yaml")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	data, err := loader.MarshalYAML(starterTables())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	return nil
}

func writeStarterModels(dir string) error {
	models := filepath.Join(dir, "models")
	if _, err := os.Stat(models); err == nil {
		return fmt.Errorf("%s directory already exists", models)
	}
	if err := os.MkdirAll(models, 0755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}
	path := filepath.Join(models, "models.go")
	if err := os.WriteFile(path, []byte(starterModels), 0644); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return nil
}

// writeEnvFile writes a .env template unless one exists.
func writeEnvFile(dir string) (bool, error) {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	content := `# rowmap configuration
DATABASE_URL=sqlite://rowmap.db
# ROWMAP_DRIVER=postgres
# ROWMAP_SCHEMA=schema.yaml
ROWMAP_LOG_LEVEL=info
ROWMAP_LOG_FORMAT=text
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return false, fmt.Errorf("error creating %s: %w", path, err)
	}
	return true, nil
}

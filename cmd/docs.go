package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/rowmap/schema"
)

var (
	docsFormat string
	docsOutput string
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Generate documentation from schema",
	Long: `Generate ERD diagrams and a table reference from your schema.

Supported formats:
  - mermaid: Mermaid ERD diagram
  - plantuml: PlantUML ERD diagram
  - markdown: table reference with the generated DDL

Examples:
  rowmap docs --format mermaid --output erd.md
  rowmap docs --format plantuml --output erd.puml
  rowmap docs --format markdown          # print to stdout
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSchema()
		if err != nil {
			return err
		}
		tables := s.Tables()
		if len(tables) == 0 {
			return fmt.Errorf("no tables found in schema")
		}

		var content string
		switch docsFormat {
		case "mermaid":
			content = generateMermaidContent(tables)
		case "plantuml":
			content = generatePlantUMLContent(tables)
		case "markdown":
			content = generateMarkdownContent(tables)
		default:
			return fmt.Errorf("unsupported format: %s (supported: mermaid, plantuml, markdown)", docsFormat)
		}

		if docsOutput == "" {
			fmt.Print(content)
			return nil
		}
		if err := os.WriteFile(docsOutput, []byte(content), 0644); err != nil {
			return fmt.Errorf("error writing %s: %w", docsOutput, err)
		}
		color.Green("✅ Documentation saved to: %s", docsOutput)
		return nil
	},
}

func columnFlags(c schema.Field, sep string) string {
	var flags []string
	if c.PrimaryKey() {
		flags = append(flags, "PK")
	}
	if c.ForeignKey() != nil {
		flags = append(flags, "FK")
	}
	if !c.Nullable() {
		flags = append(flags, "NN")
	}
	return strings.Join(flags, sep)
}

func generateMermaidContent(tables []*schema.Table) string {
	var content strings.Builder

	content.WriteString("# Database Schema ERD\n\n")
	content.WriteString("```mermaid\nerDiagram\n")

	for _, t := range tables {
		fmt.Fprintf(&content, "    %s {\n", t.Name())
		for _, c := range t.Columns() {
			line := fmt.Sprintf("        %s %s", c.Type(), c.Name())
			if c.PrimaryKey() && c.ForeignKey() != nil {
				line += " PK, FK"
			} else if c.PrimaryKey() {
				line += " PK"
			} else if c.ForeignKey() != nil {
				line += " FK"
			}
			content.WriteString(line + "\n")
		}
		content.WriteString("    }\n")
	}

	for _, t := range tables {
		for _, c := range t.Columns() {
			if fk := c.ForeignKey(); fk != nil {
				fmt.Fprintf(&content, "    %s ||--o{ %s : %s\n", fk.TableName(), t.Name(), c.Name())
			}
		}
	}

	content.WriteString("```\n")
	return content.String()
}

func generatePlantUMLContent(tables []*schema.Table) string {
	var content strings.Builder

	content.WriteString("@startuml\n")
	content.WriteString("!theme plain\n")
	content.WriteString("skinparam linetype ortho\n\n")

	for _, t := range tables {
		fmt.Fprintf(&content, "entity \"%s\" {\n", t.Name())
		for _, c := range t.Columns() {
			prefix := "  "
			if c.PrimaryKey() {
				prefix = "  * "
			}
			fmt.Fprintf(&content, "%s%s : %s", prefix, c.Name(), c.Type())
			if flags := columnFlags(c, ", "); flags != "" {
				fmt.Fprintf(&content, " <<%s>>", flags)
			}
			content.WriteString("\n")
		}
		content.WriteString("}\n\n")
	}

	for _, t := range tables {
		for _, c := range t.Columns() {
			if fk := c.ForeignKey(); fk != nil {
				fmt.Fprintf(&content, "\"%s\" ||--o{ \"%s\" : %s\n", fk.TableName(), t.Name(), c.Name())
			}
		}
	}

	content.WriteString("@enduml\n")
	return content.String()
}

func generateMarkdownContent(tables []*schema.Table) string {
	var content strings.Builder

	content.WriteString("# Tables\n")
	for _, t := range tables {
		fmt.Fprintf(&content, "\n## %s\n\n", t.Name())
		content.WriteString("| Column | Type | Length | Flags | References |\n")
		content.WriteString("|---|---|---|---|---|\n")
		for _, c := range t.Columns() {
			length := ""
			if c.Length() > 0 {
				length = fmt.Sprint(c.Length())
			}
			ref := ""
			if fk := c.ForeignKey(); fk != nil {
				ref = fk.TableName() + "." + fk.Target().Name()
			}
			flags := columnFlags(c, " ")
			if c.AutoIncrement() {
				flags = strings.TrimSpace(flags + " AI")
			}
			fmt.Fprintf(&content, "| %s | %s | %s | %s | %s |\n", c.Name(), c.Type(), length, flags, ref)
		}
		fmt.Fprintf(&content, "\n```sql\n%s\n```\n", t.CreateSQL())
	}
	return content.String()
}

func init() {
	docsCmd.Flags().StringVarP(&docsFormat, "format", "f", "mermaid", "Output format (mermaid, plantuml, markdown)")
	docsCmd.Flags().StringVarP(&docsOutput, "output", "o", "", "Output file (default stdout)")
}

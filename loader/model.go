package loader

// TableDef is a table as written in a schema document.
type TableDef struct {
	Name    string      `yaml:"name"`
	Columns []ColumnDef `yaml:"columns"`
}

// ColumnDef is a column as written in a schema document.
type ColumnDef struct {
	Name          string     `yaml:"name"`
	Type          string     `yaml:"type"`
	Length        int        `yaml:"length,omitempty"`
	Primary       bool       `yaml:"primary,omitempty"`
	Nullable      bool       `yaml:"nullable,omitempty"`
	AutoIncrement bool       `yaml:"auto_increment,omitempty"`
	References    *Reference `yaml:"references,omitempty"`
}

// Reference names the target of a foreign key.
type Reference struct {
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
}

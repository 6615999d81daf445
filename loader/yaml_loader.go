package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Tables []TableDef `yaml:"tables"`
}

// LoadYAML reads table definitions from a schema file.
func LoadYAML(filename string) ([]TableDef, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes a schema document.
func ParseYAML(data []byte) ([]TableDef, error) {
	var yf yamlFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}
	return yf.Tables, nil
}

// MarshalYAML encodes table definitions as a schema document.
func MarshalYAML(tables []TableDef) ([]byte, error) {
	data, err := yaml.Marshal(yamlFile{Tables: tables})
	if err != nil {
		return nil, fmt.Errorf("marshalling YAML: %w", err)
	}
	return data, nil
}

package validate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Schema declares the structural expectations for ingested partitions.
type Schema struct {
	Columns          int      `yaml:"columns"`
	NumericalColumns []string `yaml:"numerical_columns"`
}

// LoadSchema reads the schema declaration from a YAML file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schema yaml: %w", err)
	}
	if s.Columns <= 0 {
		return nil, fmt.Errorf("schema %s: columns must be positive, got %d", path, s.Columns)
	}
	return &s, nil
}

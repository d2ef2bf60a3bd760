package config

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a YAML gap table, rejecting unknown fields.
func ParseYAML(data []byte) (*GapTable, error) {
	var table GapTable
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&table); err != nil {
		return nil, newError(ErrCodeParse, "failed to parse YAML: %v", err)
	}
	table.ApplyDefaults()

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &table, nil
}

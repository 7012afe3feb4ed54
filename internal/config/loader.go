package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"
)

const embeddedSchemaURL = "speechgate.v1.schema.json"

//go:embed speechgate.v1.schema.json
var embeddedSchema []byte

// compileSchema compiles the schema at schemaPath, or the embedded schema
// when schemaPath is empty.
func compileSchema(schemaPath string) (*jsonschema.Schema, error) {
	if schemaPath != "" {
		return jsonschema.Compile(schemaPath)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(embeddedSchemaURL, bytes.NewReader(embeddedSchema)); err != nil {
		return nil, err
	}

	return compiler.Compile(embeddedSchemaURL)
}

// Parse validates data against the schema and decodes it into a Config with
// defaults applied.
func Parse(data []byte, schemaPath string) (*Config, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	schema, err := compileSchema(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into Config struct: %w", err)
	}

	ApplyDefaults(&config)
	return &config, nil
}

// LoadAndValidate loads and validates the configuration.
func LoadAndValidate(path, schemaPath string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data, schemaPath)
}

// LoadOrDefault loads path, falling back to DefaultConfig when the file does
// not exist. The boolean reports whether the file was found.
func LoadOrDefault(path, schemaPath string) (*Config, bool, error) {
	cfg, err := LoadAndValidate(path, schemaPath)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return cfg, true, nil
}

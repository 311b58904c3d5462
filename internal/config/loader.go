package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// Format is a configuration file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// LoadConfig reads a configuration file. The format follows the file
// extension (.yaml, .yml or .json). Defaults are not applied.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	case ".json":
		format = FormatJSON
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}

	cfg, err := ParseConfig(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes a configuration document after checking its
// structure against the embedded JSON schema.
func ParseConfig(data []byte, format Format) (*Config, error) {
	doc, err := decodeDocument(data, format)
	if err != nil {
		return nil, err
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var cfg Config
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	}
	return &cfg, nil
}

// decodeDocument turns the raw document into the generic JSON value the
// schema validator works on. YAML goes through a JSON round trip so numbers
// end up as json.Number.
func decodeDocument(data []byte, format Format) (interface{}, error) {
	raw := data
	switch format {
	case FormatYAML:
		var v interface{}
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		if v == nil {
			v = map[string]interface{}{}
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to convert YAML: %w", err)
		}
		raw = b
	case FormatJSON:
	default:
		return nil, fmt.Errorf("unsupported config format: %s", format)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return doc, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("schema.json", strings.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("invalid schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("schema.json")
	})
	return compiledSchema, schemaErr
}

func validateDocument(doc interface{}) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}
	return nil
}

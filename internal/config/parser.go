package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/contend/pkg/jsonschema"
)

var compiledPlanSchema = jsonschema.MustCompile("plan.schema.json", planSchema)

// SchemaError reports a plan document that does not match the plan schema.
type SchemaError struct {
	Path   string
	Errors jsonschema.ValidationErrors
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("plan %s does not match schema: %s", e.Path, e.Errors.Error())
}

// LoadConfig loads a plan from a file.
//
// The file format is determined by extension:
//   - .yaml, .yml -> YAML
//   - .json -> JSON
//
// Returns the parsed PlanConfig or an error if parsing fails.
func LoadConfig(path string) (*PlanConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	return ParseConfig(data, path)
}

// ParseConfig parses plan data.
//
// The format is determined by the file extension in path, or defaults to
// YAML if the path is empty or has an unknown extension. The document is
// checked against the plan schema before it is decoded; a mismatch is
// returned as a *SchemaError.
func ParseConfig(data []byte, path string) (*PlanConfig, error) {
	unmarshal := yaml.Unmarshal
	format := "YAML"
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		unmarshal = json.Unmarshal
		format = "JSON"
	}

	var doc interface{}
	if err := unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s plan: %w", format, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("plan %s is empty", displayPath(path))
	}

	if errs := compiledPlanSchema.Validate(doc); len(errs) > 0 {
		return nil, &SchemaError{Path: displayPath(path), Errors: errs}
	}

	var config PlanConfig
	if err := unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to decode %s plan: %w", format, err)
	}

	return &config, nil
}

func displayPath(path string) string {
	if path == "" {
		return "<inline>"
	}
	return path
}

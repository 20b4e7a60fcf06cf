package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is the provider-neutral shape of a structured response.
// It carries only what providers accept; bounds live in the JSON Schema document.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// OutputSchema pairs a compiled JSON Schema validator with its provider shape.
type OutputSchema struct {
	shape    *Schema
	compiled *gojsonschema.Schema
}

// SchemaError lists the violations found in a model response.
type SchemaError struct {
	Issues []string
}

func (e *SchemaError) Error() string {
	return "llm output does not match schema: " + strings.Join(e.Issues, "; ")
}

// CompileSchema parses a JSON Schema document.
func CompileSchema(raw string) (*OutputSchema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	var shape Schema
	if err := json.Unmarshal([]byte(raw), &shape); err != nil {
		return nil, fmt.Errorf("parse schema shape: %w", err)
	}
	return &OutputSchema{shape: &shape, compiled: compiled}, nil
}

// MustCompileSchema is CompileSchema for package-level schemas.
func MustCompileSchema(raw string) *OutputSchema {
	s, err := CompileSchema(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// Shape returns the provider-facing schema.
func (o *OutputSchema) Shape() *Schema {
	return o.shape
}

// Validate checks a JSON document. Syntax errors are reported as a SchemaError too.
func (o *OutputSchema) Validate(doc []byte) error {
	result, err := o.compiled.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return &SchemaError{Issues: []string{err.Error()}}
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		issues = append(issues, fmt.Sprintf("%s: %s", re.Field(), re.Description()))
	}
	return &SchemaError{Issues: issues}
}

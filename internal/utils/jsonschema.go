package utils

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// JSONSchemaValidator validates payloads against named, compiled schemas
type JSONSchemaValidator struct {
	mu      sync.RWMutex
	schemas map[string]*gojsonschema.Schema
}

// NewJSONSchemaValidator creates a new JSONSchemaValidator
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// LoadSchema loads and compiles a JSON schema
func (v *JSONSchemaValidator) LoadSchema(name, schema string) error {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	v.mu.Lock()
	v.schemas[name] = compiled
	v.mu.Unlock()
	return nil
}

// ValidateAgainstSchema validates a Go value against a named schema
func (v *JSONSchemaValidator) ValidateAgainstSchema(name string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	return v.ValidateBytes(name, jsonData)
}

// ValidateBytes validates a raw JSON document against a named schema
func (v *JSONSchemaValidator) ValidateBytes(name string, document []byte) error {
	v.mu.RLock()
	schema, ok := v.schemas[name]
	v.mu.RUnlock()
	if !ok {
		return fmt.Errorf("schema %s not found", name)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			messages = append(messages, fmt.Sprintf("%s: %s", re.Field(), re.Description()))
		}
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(messages, "; "))
	}

	return nil
}

// JSONSchemaBuilder helps build JSON schemas programmatically
type JSONSchemaBuilder struct {
	schema     map[string]interface{}
	properties map[string]interface{}
	required   []string
}

// NewJSONSchemaBuilder creates a new JSONSchemaBuilder for a closed object
func NewJSONSchemaBuilder() *JSONSchemaBuilder {
	properties := map[string]interface{}{}
	return &JSONSchemaBuilder{
		schema: map[string]interface{}{
			"$schema":              "http://json-schema.org/draft-07/schema#",
			"type":                 "object",
			"additionalProperties": false,
			"properties":           properties,
		},
		properties: properties,
	}
}

// SetTitle sets the schema title
func (b *JSONSchemaBuilder) SetTitle(title string) *JSONSchemaBuilder {
	b.schema["title"] = title
	return b
}

// AddProperty adds a property of a primitive type
func (b *JSONSchemaBuilder) AddProperty(name, propertyType string, required bool) *JSONSchemaBuilder {
	b.properties[name] = map[string]interface{}{"type": propertyType}
	if required {
		b.required = append(b.required, name)
	}
	return b
}

// AddStringProperty adds a string property to the schema
func (b *JSONSchemaBuilder) AddStringProperty(name string, required bool) *JSONSchemaBuilder {
	return b.AddProperty(name, "string", required)
}

// AddEnumProperty adds a string property restricted to the given values
func (b *JSONSchemaBuilder) AddEnumProperty(name string, values []string, required bool) *JSONSchemaBuilder {
	b.properties[name] = map[string]interface{}{
		"type": "string",
		"enum": values,
	}
	if required {
		b.required = append(b.required, name)
	}
	return b
}

// Build returns the JSON schema as a string
func (b *JSONSchemaBuilder) Build() (string, error) {
	if len(b.required) > 0 {
		b.schema["required"] = b.required
	}

	jsonBytes, err := json.MarshalIndent(b.schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}

	return string(jsonBytes), nil
}

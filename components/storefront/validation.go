package storefront

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Form names accepted by FormValidator.
const (
	FormOrder   = "order"
	FormRequest = "request"
	FormContact = "contact"
	FormProduct = "product"
)

// FormValidator checks a payload against the schema registered for a form.
type FormValidator interface {
	Validate(form string, payload any) error
}

const draft07 = "http://json-schema.org/draft-07/schema#"

var nonBlank = map[string]any{"type": "string", "pattern": `\S`}

// FormSchemas are the built-in payload schemas.
var FormSchemas = map[string]map[string]any{
	FormOrder: {
		"$schema":  draft07,
		"type":     "object",
		"required": []any{"customer_name", "product_id"},
		"properties": map[string]any{
			"customer_name": nonBlank,
			"product_id":    map[string]any{"type": []any{"integer", "string"}, "minLength": 1},
			"message":       map[string]any{"type": "string"},
		},
	},
	FormRequest: {
		"$schema":  draft07,
		"type":     "object",
		"required": []any{"customer_name", "message"},
		"properties": map[string]any{
			"customer_name": nonBlank,
			"message":       nonBlank,
		},
	},
	FormContact: {
		"$schema":  draft07,
		"type":     "object",
		"required": []any{"name", "email", "message"},
		"properties": map[string]any{
			"name":    nonBlank,
			"email":   map[string]any{"type": "string", "format": "email"},
			"message": nonBlank,
		},
	},
	FormProduct: {
		"$schema":  draft07,
		"type":     "object",
		"required": []any{"name", "price"},
		"properties": map[string]any{
			"name":        nonBlank,
			"price":       map[string]any{"type": "number", "minimum": 0},
			"description": map[string]any{"type": "string"},
			"image_url":   map[string]any{"type": []any{"string", "null"}},
		},
	},
}

// JSONSchemaValidator compiles form schemas once and validates payloads.
type JSONSchemaValidator struct {
	schemas map[string]map[string]any

	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator over the given schemas, or the
// built-in FormSchemas when none are provided.
func NewJSONSchemaValidator(schemas map[string]map[string]any) *JSONSchemaValidator {
	if schemas == nil {
		schemas = FormSchemas
	}
	return &JSONSchemaValidator{
		schemas:  schemas,
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate normalizes payload through JSON and checks it against the form schema.
func (v *JSONSchemaValidator) Validate(form string, payload any) error {
	schema, err := v.schemaFor(form)
	if err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("storefront: marshal %s payload: %w", form, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("storefront: normalize %s payload: %w", form, err)
	}
	if err := schema.Validate(doc); err != nil {
		return &ValidationError{Form: form, Err: err}
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(form string) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[form]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	raw, ok := v.schemas[form]
	if !ok {
		return nil, fmt.Errorf("storefront: no schema for form %q", form)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("storefront: marshal schema %s: %w", form, err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	name := form + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("storefront: load schema %s: %w", form, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("storefront: compile schema %s: %w", form, err)
	}
	v.mu.Lock()
	v.compiled[form] = compiled
	v.mu.Unlock()
	return compiled, nil
}

type noopFormValidator struct{}

func (noopFormValidator) Validate(string, any) error { return nil }

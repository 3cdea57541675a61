package parsing

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

var (
	compileOnce sync.Once
	compiled    *gojsonschema.Schema
	compileErr  error
)

// Schema returns a copy of the ParsedResume JSON Schema.
func Schema() json.RawMessage {
	return append(json.RawMessage(nil), schemaJSON...)
}

// ValidationError lists every schema violation in a candidate document.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is a single violation at a field path.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	parts := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "schema validation failed: " + strings.Join(parts, "; ")
}

func loadSchema() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled, compileErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return compiled, compileErr
}

// Validate checks raw against the ParsedResume schema.
func Validate(raw []byte) error {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: "empty document"}}}
	}
	if !json.Valid(raw) {
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: "invalid JSON"}}}
	}

	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}

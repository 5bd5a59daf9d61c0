package types

import (
	_ "embed"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed parsed_resume.schema.json
var responseSchema []byte

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(responseSchema))
})

// ResponseSchema returns the JSON Schema describing ParsedResume.
func ResponseSchema() []byte {
	out := make([]byte, len(responseSchema))
	copy(out, responseSchema)
	return out
}

// ResponseSchemaMap returns the schema decoded into a generic map, ready for model tool definitions.
func ResponseSchemaMap() (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(responseSchema, &m); err != nil {
		return nil, fmt.Errorf("decode response schema: %w", err)
	}
	return m, nil
}

// ValidateJSON checks raw JSON against the ParsedResume schema.
// Schema violations come back as *ValidationError; malformed JSON as a plain error.
func ValidateJSON(raw []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile response schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("malformed model output: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, e := range result.Errors() {
		field := e.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, FieldError{Field: field, Message: e.Description()})
	}
	return verr
}

// DecodeParsedResume turns a raw model payload into a validated ParsedResume.
// The payload is checked against the JSON Schema, decoded, normalised and
// finally checked against the struct constraints.
func DecodeParsedResume(raw []byte) (*ParsedResume, error) {
	if err := ValidateJSON(raw); err != nil {
		return nil, err
	}

	var resume ParsedResume
	if err := json.Unmarshal(raw, &resume); err != nil {
		var verr *ValidationError
		if stderrors.As(err, &verr) {
			return nil, verr
		}
		return nil, fmt.Errorf("malformed model output: %w", err)
	}
	resume.normalize()

	if err := resume.Validate(); err != nil {
		return nil, err
	}
	return &resume, nil
}

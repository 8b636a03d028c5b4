package document

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/definitions.json
var definitionsJSON []byte

// SchemaKind selects the root of a validation.
type SchemaKind string

const (
	SchemaResume   SchemaKind = "resume"
	SchemaAnalysis SchemaKind = "analysis"
)

// FieldError is one schema violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SchemaError lists every violation found in a document.
type SchemaError struct {
	Kind   SchemaKind   `json:"kind"`
	Errors []FieldError `json:"errors"`
}

func (e *SchemaError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return fmt.Sprintf("%s document failed schema validation: %s", e.Kind, strings.Join(msgs, "; "))
}

var (
	schemasOnce sync.Once
	schemas     map[SchemaKind]*gojsonschema.Schema
	schemasErr  error
)

func loadSchemas() {
	var root map[string]any
	if err := json.Unmarshal(definitionsJSON, &root); err != nil {
		schemasErr = fmt.Errorf("decode embedded schema: %w", err)
		return
	}

	schemas = make(map[SchemaKind]*gojsonschema.Schema, 2)
	for _, kind := range []SchemaKind{SchemaResume, SchemaAnalysis} {
		doc := map[string]any{
			"$schema":     root["$schema"],
			"definitions": root["definitions"],
			"$ref":        "#/definitions/" + string(kind),
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
		if err != nil {
			schemasErr = fmt.Errorf("compile %s schema: %w", kind, err)
			return
		}
		schemas[kind] = s
	}
}

// Validate checks raw JSON against the embedded schema for kind. A
// *SchemaError is returned when the document is well-formed JSON but does
// not fit the schema.
func Validate(kind SchemaKind, raw []byte) error {
	schemasOnce.Do(loadSchemas)
	if schemasErr != nil {
		return schemasErr
	}

	s, ok := schemas[kind]
	if !ok {
		return fmt.Errorf("unknown schema kind %q", kind)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validate %s document: %w", kind, err)
	}
	if result.Valid() {
		return nil
	}

	schemaErr := &SchemaError{
		Kind:   kind,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		schemaErr.Errors = append(schemaErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return schemaErr
}

package handlers

import (
	"embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/tech-artist89/mitra/pkg/submission"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema file names.
const (
	contactSchema      = "schemas/contact.json"
	configuratorSchema = "schemas/configurator.json"
)

// payloadSchema validates raw request bodies.
type payloadSchema struct {
	schema *gojsonschema.Schema
}

func loadSchema(name string) (*payloadSchema, error) {
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &payloadSchema{schema: s}, nil
}

// mustLoadSchema panics on embedded schemas that fail to compile.
func mustLoadSchema(name string) *payloadSchema {
	s, err := loadSchema(name)
	if err != nil {
		panic(err)
	}
	return s
}

// validate returns ErrMalformedPayload when body is not JSON, and field
// errors when it does not match the schema.
func (s *payloadSchema) validate(body []byte) (submission.ValidationErrors, error) {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if result.Valid() {
		return nil, nil
	}

	errs := make(submission.ValidationErrors, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, submission.FieldError{Field: fieldName(desc), Message: desc.Description()})
	}
	return errs, nil
}

// fieldName returns the dotted path of the offending field. Missing
// required properties are reported on the property itself.
func fieldName(desc gojsonschema.ResultError) string {
	field := desc.Field()
	if field == rootField {
		field = ""
	}
	if desc.Type() == "required" {
		if prop, ok := desc.Details()["property"].(string); ok {
			if field == "" {
				return prop
			}
			return field + "." + prop
		}
	}
	return field
}

const rootField = "(root)"

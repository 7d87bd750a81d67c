package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a JSON schema expressed as a Go map.
type Schema map[string]interface{}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateDocument validates a Go value (struct, map or slice) against schema.
func ValidateDocument(document interface{}, schema Schema) (*ValidationResult, error) {
	return validate(gojsonschema.NewGoLoader(document), schema)
}

// ValidateBytes validates raw JSON against schema. Malformed JSON is an error,
// not a failed result.
func ValidateBytes(document []byte, schema Schema) (*ValidationResult, error) {
	return validate(gojsonschema.NewBytesLoader(document), schema)
}

func validate(documentLoader gojsonschema.JSONLoader, schema Schema) (*ValidationResult, error) {
	schemaLoader := gojsonschema.NewGoLoader(map[string]interface{}(schema))

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldName(desc),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// required errors are reported against the parent, so point them at the missing property.
func fieldName(desc gojsonschema.ResultError) string {
	field := desc.Field()
	if desc.Type() == "required" {
		if prop, ok := desc.Details()["property"].(string); ok {
			switch {
			case field == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY:
				return prop
			case field == prop || strings.HasSuffix(field, "."+prop):
				return field
			default:
				return field + "." + prop
			}
		}
	}
	return field
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// String joins all messages, for error details.
func (vr *ValidationResult) String() string {
	return strings.Join(vr.GetErrorMessages(), "; ")
}

// NonEmptyString is a property requiring a string of at least one character.
func NonEmptyString() map[string]interface{} {
	return map[string]interface{}{
		"type":      "string",
		"minLength": 1,
	}
}

// ObjectSchema builds an object schema that requires every property in required.
func ObjectSchema(properties map[string]interface{}, required ...string) Schema {
	req := make([]interface{}, len(required))
	for i, r := range required {
		req[i] = r
	}
	return Schema{
		"type":       "object",
		"properties": properties,
		"required":   req,
	}
}

package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Metadata payload schemas. REDCap exports are JSON arrays of flat objects
// with string values; the resolver only depends on the properties required
// here, so extra properties are allowed.
var dataDictionarySchema = map[string]interface{}{
	"type": "array",
	"items": map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"field_name", "form_name", "field_type"},
		"properties": map[string]interface{}{
			"field_name": map[string]interface{}{"type": "string", "minLength": 1},
			"form_name":  map[string]interface{}{"type": "string", "minLength": 1},
			"field_type": map[string]interface{}{"type": "string", "minLength": 1},
			"select_choices_or_calculations": map[string]interface{}{"type": "string"},
		},
	},
}

var eventMappingSchema = map[string]interface{}{
	"type": "array",
	"items": map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"unique_event_name", "form"},
		"properties": map[string]interface{}{
			"unique_event_name": map[string]interface{}{"type": "string", "minLength": 1},
			"form":              map[string]interface{}{"type": "string", "minLength": 1},
		},
	},
}

// ValidateDataDictionary checks a decoded data-dictionary payload against the
// schema the resolver depends on.
func ValidateDataDictionary(data interface{}) error {
	return validateAgainstSchema(dataDictionarySchema, data)
}

// ValidateEventMappings checks a decoded instrument-event-mapping payload.
func ValidateEventMappings(data interface{}) error {
	return validateAgainstSchema(eventMappingSchema, data)
}

func validateAgainstSchema(schemaMap map[string]interface{}, data interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("metadata validation failed: %v", errs)
	}

	return nil
}

package orchestrator

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// targetingOverlaySchema constrains the shape of a package's targeting
// overlay. The overlay is opaque to pricing and budget rules; the schema only
// rejects payloads the ad servers cannot represent.
const targetingOverlaySchema = `{
	"type": "object",
	"properties": {
		"geo_country_any_of": {
			"type": "array",
			"items": {"type": "string", "minLength": 2, "maxLength": 2}
		},
		"geo_region_any_of": {
			"type": "array",
			"items": {"type": "string"}
		},
		"device_type_any_of": {
			"type": "array",
			"items": {"type": "string", "enum": ["desktop", "mobile", "tablet", "ctv", "audio", "dooh"]}
		},
		"os_any_of": {
			"type": "array",
			"items": {"type": "string"}
		},
		"browser_any_of": {
			"type": "array",
			"items": {"type": "string"}
		},
		"content_category_any_of": {
			"type": "array",
			"items": {"type": "string"}
		},
		"keywords_any_of": {
			"type": "array",
			"items": {"type": "string"}
		},
		"audience_segment_any_of": {
			"type": "array",
			"items": {"type": "string"}
		},
		"signals": {
			"type": "array",
			"items": {"type": "string"}
		},
		"frequency_cap": {
			"type": "object",
			"properties": {
				"suppress_minutes": {"type": "number", "minimum": 0},
				"scope": {"type": "string", "enum": ["media_buy", "package"]}
			},
			"additionalProperties": false
		}
	},
	"additionalProperties": false
}`

var overlaySchema = gojsonschema.NewStringLoader(targetingOverlaySchema)

// validateTargetingOverlay checks one package's overlay against the schema
// and returns field-level problems.
func validateTargetingOverlay(packageIndex int, overlay map[string]any) ([]FieldError, error) {
	if len(overlay) == 0 {
		return nil, nil
	}

	document, err := json.Marshal(overlay)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize targeting overlay: %w", err)
	}

	result, err := gojsonschema.Validate(overlaySchema, gojsonschema.NewBytesLoader(document))
	if err != nil {
		return nil, fmt.Errorf("failed to validate targeting overlay: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	fieldErrors := make([]FieldError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   fmt.Sprintf("packages[%d].targeting_overlay.%s", packageIndex, desc.Field()),
			Message: desc.Description(),
		})
	}

	return fieldErrors, nil
}

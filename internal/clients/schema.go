package clients

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const ocrResponseSchemaURL = "ocr_response.json"

// OCRResponseSchema returns the JSON-Schema of a 2xx OCR body as a generic map.
func OCRResponseSchema() map[string]any {
	metadata := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"processing_method": map[string]any{"type": "string"},
			"confidence":        map[string]any{"type": "number", "minimum": 0, "maximum": 100},
			"character_count":   map[string]any{"type": "integer", "minimum": 0},
			"line_count":        map[string]any{"type": "integer", "minimum": 0},
			"processing_type":   map[string]any{"type": "string"},
		},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text":         map[string]any{"type": "string"},
			"metadata":     metadata,
			"download_url": map[string]any{"type": "string"},
			"status":       map[string]any{"type": "string"},
		},
		"required": []string{"text", "status"},
	}
}

// ResponseValidator checks OCR bodies against OCRResponseSchema
type ResponseValidator struct {
	schema *jsonschema.Schema
}

// NewResponseValidator compiles the OCR response schema
func NewResponseValidator() (*ResponseValidator, error) {
	b, err := json.Marshal(OCRResponseSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(ocrResponseSchemaURL, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}

	schema, err := compiler.Compile(ocrResponseSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &ResponseValidator{schema: schema}, nil
}

// Validate checks raw JSON against the schema
func (v *ResponseValidator) Validate(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

package models

import (
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// workflowSchema validates workflow documents on import, before they reach
// the store. It checks shape, not semantics.
const workflowSchema = `{
  "type": "object",
  "required": ["id", "name", "steps"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "name": {"type": "string", "minLength": 3},
    "description": {"type": "string"},
    "version": {"type": "integer", "minimum": 0},
    "steps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type", "action"],
        "properties": {
          "id": {"type": "string"},
          "type": {
            "type": "string",
            "enum": ["navigation", "click", "input", "wait", "extract", "validate", "group"]
          },
          "action": {"type": "string", "minLength": 1},
          "target": {"type": "string"},
          "data": {"type": "object"}
        }
      }
    },
    "tags": {"type": "array", "items": {"type": "string"}},
    "category": {"type": "string"},
    "variables": {"type": "array", "items": {"type": "string"}}
  }
}`

var ErrInvalidWorkflowDocument = errors.New("invalid workflow document")

// ValidateWorkflowJSON checks a raw workflow document against the workflow
// schema and returns ErrInvalidWorkflowDocument with the collected schema
// violations when it does not conform.
func ValidateWorkflowJSON(document []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(workflowSchema),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return fmt.Errorf("failed to validate workflow document: %w", err)
	}

	if result.Valid() {
		return nil
	}

	msg := ""
	for _, desc := range result.Errors() {
		if msg != "" {
			msg += "; "
		}

		msg += desc.String()
	}

	return fmt.Errorf("%w: %s", ErrInvalidWorkflowDocument, msg)
}

package models

import "time"

// VariableType is the inferred semantic type of a template variable.
type VariableType string

const (
	VariableTypeText   VariableType = "text"
	VariableTypeEmail  VariableType = "email"
	VariableTypeURL    VariableType = "url"
	VariableTypePhone  VariableType = "phone"
	VariableTypeDate   VariableType = "date"
	VariableTypeNumber VariableType = "number"
)

type TemplateVariable struct {
	Name        string       `json:"name"        validate:"required"`
	Type        VariableType `json:"type"`
	Required    bool         `json:"required"`
	Description string       `json:"description,omitempty"`
}

// TemplateMetadata tracks template bookkeeping.
type TemplateMetadata struct {
	Created time.Time `json:"created"`
	Usage   int       `json:"usage"`
	Rating  float64   `json:"rating"`
}

// Template is a workflow with literals abstracted into named, typed
// variables for reuse.
type Template struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"             validate:"required,min=3"`
	Description    string             `json:"description"`
	Category       string             `json:"category,omitempty"`
	BaseWorkflowID string             `json:"base_workflow_id" validate:"required"`
	Variables      []TemplateVariable `json:"variables"`
	Steps          []Step             `json:"steps"`
	Metadata       TemplateMetadata   `json:"metadata"`
}

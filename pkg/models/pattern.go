package models

import "time"

// Pattern is a recurring step sub-sequence signature tracked across
// workflows. The signature is the ordered concatenation of "type:action"
// tokens.
type Pattern struct {
	Signature string    `json:"signature"`
	Length    int       `json:"length"`
	Examples  []Step    `json:"examples,omitempty"`
	Frequency int       `json:"frequency"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// SuggestionKind classifies an advisory optimization suggestion.
type SuggestionKind string

const (
	SuggestionParallelization SuggestionKind = "parallelization"
	SuggestionRedundancy      SuggestionKind = "redundancy"
)

// Suggestion is advisory output of the pattern recognizer. Suggestions never
// mutate the workflow they refer to.
type Suggestion struct {
	Kind       SuggestionKind `json:"kind"`
	WorkflowID string         `json:"workflow_id"`
	StepIDs    []string       `json:"step_ids,omitempty"`
	Signature  string         `json:"signature,omitempty"`
	Message    string         `json:"message"`
	CreatedAt  time.Time      `json:"created_at"`
}

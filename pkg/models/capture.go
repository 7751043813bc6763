package models

import "time"

// CapturedEvent is one raw interaction reported by the browser control
// surface during recording, before filtering.
type CapturedEvent struct {
	Type      StepType       `json:"type"`
	Action    string         `json:"action"`
	Target    string         `json:"target,omitempty"`
	Value     string         `json:"value,omitempty"`
	URL       string         `json:"url,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Context   map[string]any `json:"context,omitempty"`
}

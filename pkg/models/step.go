// Package models defines the core domain models for browser workflow recording and replay.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type StepType string

const (
	StepTypeNavigation StepType = "navigation"
	StepTypeClick      StepType = "click"
	StepTypeInput      StepType = "input"
	StepTypeWait       StepType = "wait"
	StepTypeExtract    StepType = "extract"
	StepTypeValidate   StepType = "validate"
	StepTypeGroup      StepType = "group"
)

// WaitCondition names a condition the control surface can poll for.
type WaitCondition string

const (
	WaitElementVisible WaitCondition = "element_visible"
	WaitPageLoad       WaitCondition = "page_load"
	WaitTextPresent    WaitCondition = "text_present"
)

// Step is one recorded or synthetic action. Exactly one of the typed payload
// pointers is set, matching Type; the payload is serialized as a single
// "data" object on the wire.
type Step struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      StepType       `json:"type"       validate:"required"`
	Action    string         `json:"action"     validate:"required"`
	Target    string         `json:"target,omitempty"`
	Context   map[string]any `json:"context,omitempty"`

	Navigation *NavigationData `json:"-"`
	Click      *ClickData      `json:"-"`
	Input      *InputData      `json:"-"`
	Wait       *WaitData       `json:"-"`
	Extract    *ExtractData    `json:"-"`
	Validate   *ValidateData   `json:"-"`
	Group      *GroupData      `json:"-"`
}

type NavigationData struct {
	URL     string `json:"url"`
	WaitFor string `json:"wait_for,omitempty"`
}

type ClickData struct {
	Button      string `json:"button,omitempty"`
	DoubleClick bool   `json:"double_click,omitempty"`
}

type InputData struct {
	Value    string `json:"value"`
	Clear    bool   `json:"clear,omitempty"`
	Validate bool   `json:"validate,omitempty"`
}

type WaitData struct {
	// Duration is used when Condition is empty; zero means the 1s default.
	Duration  time.Duration `json:"duration,omitempty"`
	Condition WaitCondition `json:"condition,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty"`
	Text      string        `json:"text,omitempty"`
}

type ExtractData struct {
	Attribute string `json:"attribute,omitempty"`
	StoreAs   string `json:"store_as,omitempty"`
}

type ValidateData struct {
	Assertion string `json:"assertion"`
	Expected  string `json:"expected,omitempty"`
}

type GroupData struct {
	Children []Step `json:"children"`
	// Parallel is declared but reserved; group children always execute
	// sequentially.
	Parallel bool   `json:"parallel,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// stepWire is the serialized form of a Step.
type stepWire struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Type      StepType        `json:"type"`
	Action    string          `json:"action"`
	Target    string          `json:"target,omitempty"`
	Context   map[string]any  `json:"context,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func (s Step) MarshalJSON() ([]byte, error) {
	wire := stepWire{
		ID:        s.ID,
		Timestamp: s.Timestamp,
		Type:      s.Type,
		Action:    s.Action,
		Target:    s.Target,
		Context:   s.Context,
	}

	payload := s.payload()
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s step data: %w", s.Type, err)
		}

		wire.Data = data
	}

	return json.Marshal(wire)
}

func (s *Step) UnmarshalJSON(b []byte) error {
	var wire stepWire

	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}

	s.ID = wire.ID
	s.Timestamp = wire.Timestamp
	s.Type = wire.Type
	s.Action = wire.Action
	s.Target = wire.Target
	s.Context = wire.Context

	if len(wire.Data) == 0 {
		return nil
	}

	payload := s.allocPayload()
	if payload == nil {
		return fmt.Errorf("unknown step type %q", wire.Type)
	}

	if err := json.Unmarshal(wire.Data, payload); err != nil {
		return fmt.Errorf("failed to unmarshal %s step data: %w", wire.Type, err)
	}

	return nil
}

func (s Step) payload() any {
	switch s.Type {
	case StepTypeNavigation:
		if s.Navigation != nil {
			return s.Navigation
		}
	case StepTypeClick:
		if s.Click != nil {
			return s.Click
		}
	case StepTypeInput:
		if s.Input != nil {
			return s.Input
		}
	case StepTypeWait:
		if s.Wait != nil {
			return s.Wait
		}
	case StepTypeExtract:
		if s.Extract != nil {
			return s.Extract
		}
	case StepTypeValidate:
		if s.Validate != nil {
			return s.Validate
		}
	case StepTypeGroup:
		if s.Group != nil {
			return s.Group
		}
	}

	return nil
}

func (s *Step) allocPayload() any {
	switch s.Type {
	case StepTypeNavigation:
		s.Navigation = &NavigationData{}

		return s.Navigation
	case StepTypeClick:
		s.Click = &ClickData{}

		return s.Click
	case StepTypeInput:
		s.Input = &InputData{}

		return s.Input
	case StepTypeWait:
		s.Wait = &WaitData{}

		return s.Wait
	case StepTypeExtract:
		s.Extract = &ExtractData{}

		return s.Extract
	case StepTypeValidate:
		s.Validate = &ValidateData{}

		return s.Validate
	case StepTypeGroup:
		s.Group = &GroupData{}

		return s.Group
	}

	return nil
}

// Signature returns the "type:action" token used for pattern mining.
func (s Step) Signature() string {
	return string(s.Type) + ":" + s.Action
}

// Package events defines event types and structures for recording and
// execution lifecycle notifications.
package events

import (
	"time"

	"github.com/replaykit/replaykit/pkg/models"
)

type EventType string

// Topic carries every engine event on the bus.
const Topic = "replaykit.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Recording lifecycle events.
	RecordingStartedEvent EventType = "recording-started"
	StepRecordedEvent     EventType = "step-recorded"
	RecordingStoppedEvent EventType = "recording-stopped"

	// Execution lifecycle events.
	ExecutionStartedEvent   EventType = "execution-started"
	StepExecutingEvent      EventType = "step-executing"
	ExecutionProgressEvent  EventType = "execution-progress"
	ExecutionCompletedEvent EventType = "execution-completed"
	ExecutionFailedEvent    EventType = "execution-failed"

	// Advisory output of the pattern recognizer.
	OptimizationSuggestionsEvent EventType = "optimization-suggestions"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type RecordingStarted struct {
	BaseEvent

	SessionID string                   `json:"session_id"`
	Name      string                   `json:"name"`
	Settings  models.RecordingSettings `json:"settings"`
}

func (e RecordingStarted) GetType() EventType {
	return RecordingStartedEvent
}

type StepRecorded struct {
	BaseEvent

	SessionID string      `json:"session_id"`
	Step      models.Step `json:"step"`
	StepCount int         `json:"step_count"`
}

func (e StepRecorded) GetType() EventType {
	return StepRecordedEvent
}

type RecordingStopped struct {
	BaseEvent

	SessionID  string        `json:"session_id"`
	WorkflowID string        `json:"workflow_id"`
	StepCount  int           `json:"step_count"`
	Duration   time.Duration `json:"duration"`
}

func (e RecordingStopped) GetType() EventType {
	return RecordingStoppedEvent
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	WorkflowID  string `json:"workflow_id"`
	StepCount   int    `json:"step_count"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type StepExecuting struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	WorkflowID  string `json:"workflow_id"`
	StepID      string `json:"step_id"`
	StepIndex   int    `json:"step_index"`
	StepType    string `json:"step_type"`
}

func (e StepExecuting) GetType() EventType {
	return StepExecutingEvent
}

type ExecutionProgress struct {
	BaseEvent

	ExecutionID string  `json:"execution_id"`
	WorkflowID  string  `json:"workflow_id"`
	StepIndex   int     `json:"step_index"`
	Fraction    float64 `json:"fraction"`
}

func (e ExecutionProgress) GetType() EventType {
	return ExecutionProgressEvent
}

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	WorkflowID  string        `json:"workflow_id"`
	Duration    time.Duration `json:"duration"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	WorkflowID  string        `json:"workflow_id"`
	StepIndex   int           `json:"step_index"`
	Error       string        `json:"error"`
	Duration    time.Duration `json:"duration"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

type OptimizationSuggestions struct {
	BaseEvent

	WorkflowID  string              `json:"workflow_id"`
	Suggestions []models.Suggestion `json:"suggestions"`
}

func (e OptimizationSuggestions) GetType() EventType {
	return OptimizationSuggestionsEvent
}

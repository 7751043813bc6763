package models

import "time"

// ExecutionStatus is the lifecycle state of one workflow run.
type ExecutionStatus string

const (
	ExecutionStatusPending    ExecutionStatus = "pending"
	ExecutionStatusRunning    ExecutionStatus = "running"
	ExecutionStatusCompleted  ExecutionStatus = "completed"
	ExecutionStatusFailed     ExecutionStatus = "failed"
	ExecutionStatusCancelling ExecutionStatus = "cancelling"
	ExecutionStatusCancelled  ExecutionStatus = "cancelled"
)

// Terminal reports whether the status is a terminal state.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed || s == ExecutionStatusCancelled
}

// ExecutionError records one step failure during a run.
type ExecutionError struct {
	StepIndex int       `json:"step_index"`
	StepID    string    `json:"step_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Execution is one run of a workflow against the browser control surface
// with concrete parameters. CurrentStep only increases within a run; the
// only re-entry of an index is an explicit retry of that same index.
type Execution struct {
	ID          string            `json:"id"`
	WorkflowID  string            `json:"workflow_id"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     time.Time         `json:"end_time,omitzero"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Status      ExecutionStatus   `json:"status"`
	CurrentStep int               `json:"current_step"`
	Results     map[int]any       `json:"results,omitempty"`
	Errors      []ExecutionError  `json:"errors,omitempty"`
	RetryCount  int               `json:"retry_count"`
}

// Duration returns the elapsed run time, zero while the run is still open.
func (e *Execution) Duration() time.Duration {
	if e.EndTime.IsZero() {
		return 0
	}

	return e.EndTime.Sub(e.StartTime)
}

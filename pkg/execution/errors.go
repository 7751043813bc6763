package execution

import (
	"errors"
	"fmt"
	"time"
)

// ErrExecutionNotFound indicates no running execution matches the given ID.
var ErrExecutionNotFound = errors.New("execution not found")

// ErrExecutionCancelled terminates a run whose cancellation was observed at
// an iteration boundary.
var ErrExecutionCancelled = errors.New("execution cancelled")

// TimeoutError reports a single control-surface request that did not resolve
// within its per-request deadline.
type TimeoutError struct {
	StepID  string
	Kind    string // navigation, click, input
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s request for step %s timed out after %s", e.Kind, e.StepID, e.Timeout)
}

// WaitTimeoutError reports a wait condition that never became true.
type WaitTimeoutError struct {
	StepID    string
	Condition string
	Timeout   time.Duration
}

func (e *WaitTimeoutError) Error() string {
	return fmt.Sprintf("wait condition %s for step %s not met within %s", e.Condition, e.StepID, e.Timeout)
}

// StepError wraps a control-surface response that reported success=false.
type StepError struct {
	StepID  string
	Kind    string
	Message string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step %s failed: %s", e.Kind, e.StepID, e.Message)
}

// RecoveryError is raised once retries are exhausted; it wraps the last
// underlying error.
type RecoveryError struct {
	StepID   string
	Attempts int
	Err      error
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("step %s still failing after %d recovery attempts: %v", e.StepID, e.Attempts, e.Err)
}

func (e *RecoveryError) Unwrap() error {
	return e.Err
}

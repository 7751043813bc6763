package models

import "time"

// WorkflowMetadata carries the derived planning figures for a workflow. The
// values are deterministic functions of the step list and are recomputed when
// a recording is finalized.
type WorkflowMetadata struct {
	Duration               time.Duration `json:"duration"`
	StepCount              int           `json:"step_count"`
	Complexity             float64       `json:"complexity"`
	EstimatedExecutionTime time.Duration `json:"estimated_execution_time"`
}

// ValidationRule is an optional post-execution assertion attached to a workflow.
type ValidationRule struct {
	Name     string `json:"name"`
	Selector string `json:"selector,omitempty"`
	Expected string `json:"expected,omitempty"`
}

// Workflow is an immutable, ordered sequence of steps plus metadata, produced
// by recording and consumed by execution. Steps never change once the
// workflow is stored; re-recording produces a new workflow ID.
type Workflow struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"        validate:"required,min=3"`
	Description string           `json:"description"`
	Version     int              `json:"version"`
	Steps       []Step           `json:"steps"`
	Context     map[string]any   `json:"context,omitempty"`
	Metadata    WorkflowMetadata `json:"metadata"`
	Settings    RecordingSettings `json:"settings"`
	Tags        []string         `json:"tags,omitempty"`
	Category    string           `json:"category,omitempty"`
	Validation  []ValidationRule `json:"validation,omitempty"`
	Variables   []string         `json:"variables,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Step type weights for the complexity score.
const (
	complexityClick      = 1.0
	complexityInput      = 1.0
	complexityNavigation = 2.0
	complexityWait       = 0.5
	complexityExtract    = 3.0
	complexityValidate   = 3.0
	complexityGroupChild = 0.8
)

// Per-type fixed costs for the execution time estimate.
const (
	estimateClick       = 500 * time.Millisecond
	estimateInput       = 1000 * time.Millisecond
	estimateNavigation  = 3000 * time.Millisecond
	estimateWaitDefault = 1000 * time.Millisecond
	estimateExtract     = 2000 * time.Millisecond
	estimateValidate    = 1500 * time.Millisecond
)

// Complexity computes the workflow complexity score, rounded to one decimal.
// Appending a step never decreases the score.
func Complexity(steps []Step) float64 {
	total := 0.0
	for _, step := range steps {
		total += stepComplexity(step)
	}

	return round1(total)
}

func stepComplexity(step Step) float64 {
	switch step.Type {
	case StepTypeClick:
		return complexityClick
	case StepTypeInput:
		return complexityInput
	case StepTypeNavigation:
		return complexityNavigation
	case StepTypeWait:
		return complexityWait
	case StepTypeExtract:
		return complexityExtract
	case StepTypeValidate:
		return complexityValidate
	case StepTypeGroup:
		if step.Group == nil {
			return 0
		}

		return complexityGroupChild * float64(len(step.Group.Children))
	default:
		return 0
	}
}

// EstimateExecutionTime computes the planning estimate for a step list.
func EstimateExecutionTime(steps []Step) time.Duration {
	var total time.Duration
	for _, step := range steps {
		total += stepEstimate(step)
	}

	return total
}

func stepEstimate(step Step) time.Duration {
	switch step.Type {
	case StepTypeClick:
		return estimateClick
	case StepTypeInput:
		return estimateInput
	case StepTypeNavigation:
		return estimateNavigation
	case StepTypeWait:
		if step.Wait != nil && step.Wait.Duration > 0 {
			return step.Wait.Duration
		}

		return estimateWaitDefault
	case StepTypeExtract:
		return estimateExtract
	case StepTypeValidate:
		return estimateValidate
	case StepTypeGroup:
		if step.Group == nil {
			return 0
		}

		return EstimateExecutionTime(step.Group.Children)
	default:
		return 0
	}
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

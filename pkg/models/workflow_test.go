package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func step(stepType StepType) Step {
	return Step{Type: stepType, Action: string(stepType)}
}

func TestComplexity(t *testing.T) {
	tests := []struct {
		name     string
		steps    []Step
		expected float64
	}{
		{
			name:     "empty list",
			steps:    nil,
			expected: 0,
		},
		{
			name:     "single click",
			steps:    []Step{step(StepTypeClick)},
			expected: 1.0,
		},
		{
			name: "mixed step types",
			steps: []Step{
				step(StepTypeClick),
				step(StepTypeInput),
				step(StepTypeNavigation),
				step(StepTypeWait),
				step(StepTypeExtract),
			},
			expected: 7.5,
		},
		{
			name: "group weights children at 0.8 each",
			steps: []Step{
				{
					Type:   StepTypeGroup,
					Action: "group",
					Group: &GroupData{
						Children: []Step{step(StepTypeClick), step(StepTypeClick), step(StepTypeInput)},
					},
				},
			},
			expected: 2.4,
		},
		{
			name:     "rounded to one decimal",
			steps:    []Step{step(StepTypeValidate), step(StepTypeWait)},
			expected: 3.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Complexity(tt.steps), 0.001)
		})
	}
}

func TestComplexityMonotonic(t *testing.T) {
	steps := []Step{}
	previous := Complexity(steps)

	for _, stepType := range []StepType{
		StepTypeNavigation, StepTypeClick, StepTypeInput,
		StepTypeWait, StepTypeExtract, StepTypeValidate,
	} {
		steps = append(steps, step(stepType))
		current := Complexity(steps)

		assert.GreaterOrEqual(t, current, previous, "appending %s decreased the score", stepType)

		previous = current
	}
}

func TestEstimateExecutionTime(t *testing.T) {
	tests := []struct {
		name     string
		steps    []Step
		expected time.Duration
	}{
		{
			name:     "empty list",
			steps:    nil,
			expected: 0,
		},
		{
			name: "fixed per-type costs",
			steps: []Step{
				step(StepTypeNavigation),
				step(StepTypeClick),
				step(StepTypeInput),
			},
			expected: 4500 * time.Millisecond,
		},
		{
			name: "wait uses its configured duration",
			steps: []Step{
				{Type: StepTypeWait, Action: "wait", Wait: &WaitData{Duration: 250 * time.Millisecond}},
			},
			expected: 250 * time.Millisecond,
		},
		{
			name:     "wait without duration defaults to one second",
			steps:    []Step{step(StepTypeWait)},
			expected: 1000 * time.Millisecond,
		},
		{
			name: "group sums its children",
			steps: []Step{
				{
					Type:   StepTypeGroup,
					Action: "group",
					Group: &GroupData{
						Children: []Step{step(StepTypeClick), step(StepTypeExtract)},
					},
				},
			},
			expected: 2500 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EstimateExecutionTime(tt.steps))
		})
	}
}

func TestStepSignature(t *testing.T) {
	s := Step{Type: StepTypeClick, Action: "click"}

	assert.Equal(t, "click:click", s.Signature())
}

package patterns

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replaykit/replaykit/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func typedStep(id string, stepType models.StepType, action, target string) models.Step {
	return models.Step{ID: id, Type: stepType, Action: action, Target: target}
}

func TestSignature(t *testing.T) {
	steps := []models.Step{
		typedStep("1", models.StepTypeClick, "click", "#a"),
		typedStep("2", models.StepTypeInput, "type", "#b"),
	}

	assert.Equal(t, "click:click,input:type", Signature(steps))
}

func TestLearnRecordsAllNgrams(t *testing.T) {
	store := NewMemoryStore(0)
	recognizer := NewRecognizer(store, nil, testLogger())

	workflow := &models.Workflow{
		ID: "wf-1",
		Steps: []models.Step{
			typedStep("1", models.StepTypeNavigation, "navigate", "/a"),
			typedStep("2", models.StepTypeClick, "click", "#b"),
			typedStep("3", models.StepTypeInput, "type", "#c"),
		},
	}

	recognizer.Learn(context.Background(), workflow)

	// Three steps yield two bigrams and one trigram.
	count, err := store.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	pattern, err := store.Get(context.Background(), "navigation:navigate,click:click")
	require.NoError(t, err)
	require.NotNil(t, pattern)
	assert.Equal(t, 1, pattern.Frequency)
}

func TestLearnFlattensGroups(t *testing.T) {
	store := NewMemoryStore(0)
	recognizer := NewRecognizer(store, nil, testLogger())

	workflow := &models.Workflow{
		ID: "wf-2",
		Steps: []models.Step{
			{
				Type:   models.StepTypeGroup,
				Action: "group",
				Group: &models.GroupData{
					Children: []models.Step{
						typedStep("1", models.StepTypeInput, "type", "#user"),
						typedStep("2", models.StepTypeInput, "type", "#pass"),
					},
				},
			},
			typedStep("3", models.StepTypeClick, "click", "#submit"),
		},
	}

	recognizer.Learn(context.Background(), workflow)

	pattern, err := store.Get(context.Background(), "input:type,input:type,click:click")
	require.NoError(t, err)
	assert.NotNil(t, pattern, "mining should see through group steps")
}

func TestLearnEmitsRedundancySuggestionAfterThreeSightings(t *testing.T) {
	store := NewMemoryStore(0)
	recognizer := NewRecognizer(store, nil, testLogger())
	ctx := context.Background()

	workflow := &models.Workflow{
		ID: "wf-3",
		Steps: []models.Step{
			typedStep("1", models.StepTypeNavigation, "navigate", "/login"),
			typedStep("2", models.StepTypeInput, "type", "#user"),
			typedStep("3", models.StepTypeClick, "click", "#submit"),
		},
	}

	recognizer.Learn(ctx, workflow)
	recognizer.Learn(ctx, workflow)
	assert.Empty(t, recognizer.Suggestions(), "two sightings are not yet an established pattern")

	recognizer.Learn(ctx, workflow)

	suggestions := recognizer.Suggestions()
	require.NotEmpty(t, suggestions)

	var redundancy *models.Suggestion

	for i := range suggestions {
		if suggestions[i].Kind == models.SuggestionRedundancy {
			redundancy = &suggestions[i]

			break
		}
	}

	require.NotNil(t, redundancy)
	assert.Equal(t, "wf-3", redundancy.WorkflowID)
	assert.NotEmpty(t, redundancy.StepIDs)
}

func TestParallelCandidate(t *testing.T) {
	tests := []struct {
		name     string
		steps    []models.Step
		expected bool
	}{
		{
			name: "run of read-only steps on distinct targets",
			steps: []models.Step{
				typedStep("1", models.StepTypeExtract, "extract", "#price"),
				typedStep("2", models.StepTypeExtract, "extract", "#title"),
				typedStep("3", models.StepTypeValidate, "validate", "#stock"),
				typedStep("4", models.StepTypeClick, "click", "#buy"),
			},
			expected: true,
		},
		{
			name: "shared target disqualifies the run",
			steps: []models.Step{
				typedStep("1", models.StepTypeExtract, "extract", "#price"),
				typedStep("2", models.StepTypeValidate, "validate", "#price"),
			},
			expected: false,
		},
		{
			name: "single read-only step is not a run",
			steps: []models.Step{
				typedStep("1", models.StepTypeExtract, "extract", "#price"),
				typedStep("2", models.StepTypeClick, "click", "#buy"),
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := parallelCandidate("wf", tt.steps)

			if tt.expected {
				require.NotNil(t, candidate)
				assert.Equal(t, models.SuggestionParallelization, candidate.Kind)
			} else {
				assert.Nil(t, candidate)
			}
		})
	}
}

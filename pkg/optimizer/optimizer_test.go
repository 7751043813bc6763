package optimizer

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replaykit/replaykit/pkg/models"
)

var testTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func clickAt(target string, offset time.Duration) models.Step {
	return models.Step{
		ID:        target + offset.String(),
		Timestamp: testTime.Add(offset),
		Type:      models.StepTypeClick,
		Action:    "click",
		Target:    target,
		Click:     &models.ClickData{},
	}
}

func inputAt(target, value string, offset time.Duration) models.Step {
	return models.Step{
		ID:        target + offset.String(),
		Timestamp: testTime.Add(offset),
		Type:      models.StepTypeInput,
		Action:    "type",
		Target:    target,
		Input:     &models.InputData{Value: value},
	}
}

func navAt(url string, offset time.Duration) models.Step {
	return models.Step{
		ID:         url + offset.String(),
		Timestamp:  testTime.Add(offset),
		Type:       models.StepTypeNavigation,
		Action:     "navigate",
		Target:     url,
		Navigation: &models.NavigationData{URL: url},
	}
}

func TestIsDuplicate(t *testing.T) {
	tests := []struct {
		name     string
		a, b     models.Step
		expected bool
	}{
		{
			name:     "same click within window",
			a:        clickAt("#submit", 0),
			b:        clickAt("#submit", 500*time.Millisecond),
			expected: true,
		},
		{
			name:     "same click outside window",
			a:        clickAt("#submit", 0),
			b:        clickAt("#submit", 1500*time.Millisecond),
			expected: false,
		},
		{
			name:     "different targets",
			a:        clickAt("#submit", 0),
			b:        clickAt("#cancel", 100*time.Millisecond),
			expected: false,
		},
		{
			name:     "typing never counts as duplicate",
			a:        inputAt("#user", "a", 0),
			b:        inputAt("#user", "a", 100*time.Millisecond),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsDuplicate(tt.a, tt.b))
		})
	}
}

func TestRemoveRedundancyMergesTyping(t *testing.T) {
	steps := []models.Step{
		inputAt("#user", "ab", 0),
		inputAt("#user", "cd", 300*time.Millisecond),
	}

	result := RemoveRedundancy(steps)

	require.Len(t, result, 1)
	assert.Equal(t, "abcd", result[0].Input.Value)
	assert.Equal(t, steps[1].Timestamp, result[0].Timestamp)
}

func TestRemoveRedundancyKeepsSlowTyping(t *testing.T) {
	steps := []models.Step{
		inputAt("#user", "ab", 0),
		inputAt("#user", "cd", 2*time.Second),
	}

	result := RemoveRedundancy(steps)

	assert.Len(t, result, 2)
}

func TestRemoveRedundancyDropsDuplicateClicks(t *testing.T) {
	steps := []models.Step{
		clickAt("#submit", 0),
		clickAt("#submit", 400*time.Millisecond),
		clickAt("#next", 800*time.Millisecond),
	}

	result := RemoveRedundancy(steps)

	require.Len(t, result, 2)
	assert.Equal(t, "#submit", result[0].Target)
	assert.Equal(t, "#next", result[1].Target)
}

func TestGroupRelatedFormInputs(t *testing.T) {
	withForm := func(step models.Step, form string) models.Step {
		step.Context = map[string]any{"form": form}

		return step
	}

	steps := []models.Step{
		withForm(inputAt("#user", "bob", 0), "#login-form"),
		withForm(inputAt("#pass", "hunter2", 2*time.Second), "#login-form"),
		clickAt("#submit", 4*time.Second),
		navAt("https://x.test/a", 5*time.Second),
		navAt("https://x.test/b", 6*time.Second),
	}

	result := GroupRelated(steps)

	require.Len(t, result, 3)

	require.Equal(t, models.StepTypeGroup, result[0].Type)
	assert.Equal(t, "form-fill", result[0].Group.Reason)
	assert.Len(t, result[0].Group.Children, 2)

	assert.Equal(t, models.StepTypeClick, result[1].Type)

	require.Equal(t, models.StepTypeGroup, result[2].Type)
	assert.Equal(t, "related-navigation", result[2].Group.Reason)
}

func TestGroupRelatedKeepsOriginalWhenOnlyOneGroup(t *testing.T) {
	steps := []models.Step{
		navAt("https://x.test/a", 0),
		navAt("https://x.test/b", time.Second),
	}

	result := GroupRelated(steps)

	assert.Equal(t, steps, result)
}

func TestGroupRelatedNavigationsFarApartStaySeparate(t *testing.T) {
	steps := []models.Step{
		navAt("https://x.test/a", 0),
		navAt("https://x.test/b", 10*time.Second),
		clickAt("#x", 11*time.Second),
	}

	result := GroupRelated(steps)

	assert.Equal(t, steps, result)
}

func TestInsertSmartWaits(t *testing.T) {
	link := clickAt("a.nav-home", 0)
	link.Context = map[string]any{"tag": "a"}

	steps := []models.Step{
		link,
		clickAt("#submit-button", 2*time.Second),
		inputAt("#result-field", "x", 3*time.Second),
	}

	result := InsertSmartWaits(steps)

	require.Len(t, result, 5)

	// Navigation wait follows the link click.
	require.Equal(t, models.StepTypeWait, result[1].Type)
	assert.Equal(t, "smart-wait", result[1].Action)
	assert.Equal(t, models.WaitPageLoad, result[1].Wait.Condition)
	assert.Equal(t, 10*time.Second, result[1].Wait.Timeout)

	// Element wait precedes the input that follows a submit-like click.
	require.Equal(t, models.StepTypeWait, result[3].Type)
	assert.Equal(t, models.WaitElementVisible, result[3].Wait.Condition)
	assert.Equal(t, "#result-field", result[3].Target)
	assert.Equal(t, 5*time.Second, result[3].Wait.Timeout)
}

func TestInsertSmartWaitsPlainClickUntouched(t *testing.T) {
	steps := []models.Step{clickAt("#toggle", 0)}

	result := InsertSmartWaits(steps)

	assert.Equal(t, steps, result)
}

func TestOptimizePipeline(t *testing.T) {
	opt := NewOptimizer(slog.New(slog.NewTextHandler(io.Discard, nil)))

	steps := []models.Step{
		inputAt("#user", "bo", 0),
		inputAt("#user", "b", 200*time.Millisecond),
		clickAt("#submit", time.Second),
		clickAt("#submit", 1300*time.Millisecond),
	}

	result := opt.Optimize(steps, models.DefaultRecordingSettings())

	require.Len(t, result, 2)
	assert.Equal(t, "bob", result[0].Input.Value)
	assert.Equal(t, models.StepTypeClick, result[1].Type)
}

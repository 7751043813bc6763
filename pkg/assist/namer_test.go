package assist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replaykit/replaykit/pkg/models"
)

func TestHeuristicNamerDescribe(t *testing.T) {
	tests := []struct {
		name             string
		steps            []models.Step
		expectedCategory string
		expectedTags     []string
	}{
		{
			name: "extraction wins the category",
			steps: []models.Step{
				{Type: models.StepTypeNavigation, Action: "navigate"},
				{Type: models.StepTypeExtract, Action: "extract"},
			},
			expectedCategory: "data-extraction",
			expectedTags:     []string{"navigation", "scraping"},
		},
		{
			name: "input-heavy recordings are form automation",
			steps: []models.Step{
				{Type: models.StepTypeInput, Action: "type"},
				{Type: models.StepTypeInput, Action: "type"},
				{Type: models.StepTypeClick, Action: "click"},
			},
			expectedCategory: "form-automation",
			expectedTags:     []string{"form"},
		},
		{
			name: "navigation only is browsing",
			steps: []models.Step{
				{Type: models.StepTypeNavigation, Action: "navigate"},
			},
			expectedCategory: "browsing",
			expectedTags:     []string{"navigation"},
		},
		{
			name:             "no steps falls back to general",
			steps:            nil,
			expectedCategory: "general",
			expectedTags:     []string{},
		},
	}

	namer := NewHeuristicNamer()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			description, err := namer.Describe(context.Background(), "my workflow", tt.steps)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedCategory, description.Category)
			assert.ElementsMatch(t, tt.expectedTags, description.Tags)
			assert.NotEmpty(t, description.Description)
		})
	}
}

func TestHeuristicNamerCountsGroupChildren(t *testing.T) {
	steps := []models.Step{
		{
			Type:   models.StepTypeGroup,
			Action: "group",
			Group: &models.GroupData{
				Children: []models.Step{
					{Type: models.StepTypeInput, Action: "type"},
					{Type: models.StepTypeInput, Action: "type"},
				},
			},
		},
	}

	description, err := NewHeuristicNamer().Describe(context.Background(), "grouped", steps)
	require.NoError(t, err)

	assert.Equal(t, "form-automation", description.Category)
	assert.Contains(t, description.Tags, "form")
}

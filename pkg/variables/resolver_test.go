package variables

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replaykit/replaykit/pkg/models"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		params   map[string]string
		expected string
	}{
		{
			name:     "curly syntax",
			input:    "{{BASE}}/login",
			params:   map[string]string{"BASE": "https://x.test"},
			expected: "https://x.test/login",
		},
		{
			name:     "dollar syntax",
			input:    "${USERNAME}",
			params:   map[string]string{"USERNAME": "bob"},
			expected: "bob",
		},
		{
			name:     "mixed syntaxes in one string",
			input:    "{{BASE}}/user/${USERNAME}",
			params:   map[string]string{"BASE": "https://x.test", "USERNAME": "bob"},
			expected: "https://x.test/user/bob",
		},
		{
			name:     "unresolved name passes through literally",
			input:    "{{missing}}",
			params:   map[string]string{"other": "value"},
			expected: "{{missing}}",
		},
		{
			name:     "no variables",
			input:    "#submit",
			params:   map[string]string{"BASE": "https://x.test"},
			expected: "#submit",
		},
		{
			name:     "whitespace inside curly braces",
			input:    "{{ BASE }}",
			params:   map[string]string{"BASE": "https://x.test"},
			expected: "https://x.test",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Resolve(tt.input, tt.params))
		})
	}
}

func TestNames(t *testing.T) {
	names := Names(`{{base}} and ${user} and [ORDER_ID] and {{base}} again`)

	assert.Equal(t, []string{"base", "user", "ORDER_ID"}, names)
}

func TestNamesDedupAcrossSyntaxes(t *testing.T) {
	names := Names(`{{user}} ${user}`)

	assert.Equal(t, []string{"user"}, names)
}

func TestResolveStep(t *testing.T) {
	step := models.Step{
		ID:        "s1",
		Timestamp: time.Now(),
		Type:      models.StepTypeInput,
		Action:    "type",
		Target:    "#user-{{idx}}",
		Input:     &models.InputData{Value: "${USERNAME}"},
	}

	resolved := ResolveStep(step, map[string]string{"USERNAME": "bob", "idx": "2"})

	assert.Equal(t, "#user-2", resolved.Target)
	assert.Equal(t, "bob", resolved.Input.Value)

	// The original step is untouched.
	assert.Equal(t, "#user-{{idx}}", step.Target)
	assert.Equal(t, "${USERNAME}", step.Input.Value)
}

func TestResolveStepGroupChildren(t *testing.T) {
	step := models.Step{
		Type:   models.StepTypeGroup,
		Action: "group",
		Group: &models.GroupData{
			Children: []models.Step{
				{
					Type:       models.StepTypeNavigation,
					Action:     "navigate",
					Navigation: &models.NavigationData{URL: "{{BASE}}/home"},
				},
			},
		},
	}

	resolved := ResolveStep(step, map[string]string{"BASE": "https://x.test"})

	require.Len(t, resolved.Group.Children, 1)
	assert.Equal(t, "https://x.test/home", resolved.Group.Children[0].Navigation.URL)
}

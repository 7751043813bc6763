package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepMarshalCarriesPayloadAsData(t *testing.T) {
	s := Step{
		ID:        "s1",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Type:      StepTypeInput,
		Action:    "type",
		Target:    "#email",
		Input:     &InputData{Value: "user@example.com", Clear: true},
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))

	payload, ok := wire["data"].(map[string]any)
	require.True(t, ok, "payload should serialize under the data key")
	assert.Equal(t, "user@example.com", payload["value"])
	assert.Equal(t, true, payload["clear"])
}

func TestStepUnmarshalRestoresTypedPayload(t *testing.T) {
	raw := `{
		"id": "s2",
		"timestamp": "2026-01-02T03:04:05Z",
		"type": "navigation",
		"action": "navigate",
		"data": {"url": "https://example.com/login"}
	}`

	var s Step
	require.NoError(t, json.Unmarshal([]byte(raw), &s))

	require.NotNil(t, s.Navigation)
	assert.Equal(t, "https://example.com/login", s.Navigation.URL)
	assert.Nil(t, s.Input)
}

func TestStepUnmarshalGroupChildren(t *testing.T) {
	s := Step{
		ID:     "g1",
		Type:   StepTypeGroup,
		Action: "group",
		Group: &GroupData{
			Reason: "form-fill",
			Children: []Step{
				{ID: "c1", Type: StepTypeInput, Action: "type", Target: "#user", Input: &InputData{Value: "bob"}},
			},
		},
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded Step
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.NotNil(t, decoded.Group)
	require.Len(t, decoded.Group.Children, 1)
	assert.Equal(t, "form-fill", decoded.Group.Reason)
	require.NotNil(t, decoded.Group.Children[0].Input)
	assert.Equal(t, "bob", decoded.Group.Children[0].Input.Value)
}

func TestStepUnmarshalUnknownType(t *testing.T) {
	raw := `{"id": "s3", "type": "teleport", "action": "zap", "data": {"x": 1}}`

	var s Step
	err := json.Unmarshal([]byte(raw), &s)

	assert.ErrorContains(t, err, "unknown step type")
}

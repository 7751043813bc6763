package templates

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replaykit/replaykit/pkg/models"
	"github.com/replaykit/replaykit/pkg/persistence/file"
	"github.com/replaykit/replaykit/pkg/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()

	st := store.NewStore(file.NewPersistence(t.TempDir()))

	return NewEngine(st, testLogger()), st
}

func loginWorkflow() *models.Workflow {
	return &models.Workflow{
		Name:    "login flow",
		Version: 1,
		Steps: []models.Step{
			{
				ID:         "s1",
				Type:       models.StepTypeNavigation,
				Action:     "navigate",
				Target:     "{{base_url}}/login",
				Navigation: &models.NavigationData{URL: "{{base_url}}/login"},
			},
			{
				ID:     "s2",
				Type:   models.StepTypeInput,
				Action: "type",
				Target: "#email",
				Input:  &models.InputData{Value: "${user_email}"},
			},
			{
				ID:     "s3",
				Type:   models.StepTypeClick,
				Action: "click",
				Target: "#submit",
				Click:  &models.ClickData{},
			},
		},
	}
}

func TestGenerateFromWorkflow(t *testing.T) {
	engine, st := newTestEngine(t)
	ctx := context.Background()

	workflow, err := st.SaveWorkflow(ctx, loginWorkflow())
	require.NoError(t, err)

	template, err := engine.GenerateFromWorkflow(ctx, workflow.ID, "login template")
	require.NoError(t, err)

	assert.NotEmpty(t, template.ID)
	assert.Equal(t, workflow.ID, template.BaseWorkflowID)
	require.Len(t, template.Variables, 2)

	byName := make(map[string]models.TemplateVariable)
	for _, variable := range template.Variables {
		byName[variable.Name] = variable
	}

	assert.Equal(t, models.VariableTypeURL, byName["base_url"].Type)
	assert.Equal(t, models.VariableTypeEmail, byName["user_email"].Type)
	assert.True(t, byName["base_url"].Required)

	// Template steps keep the placeholder syntax of the recording.
	assert.Equal(t, "{{base_url}}/login", template.Steps[0].Target)
}

func TestGenerateFromMissingWorkflow(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.GenerateFromWorkflow(context.Background(), "no-such-id", "x")

	require.Error(t, err)
	assert.True(t, WorkflowNotFound(err))
}

func TestInstantiate(t *testing.T) {
	engine, st := newTestEngine(t)
	ctx := context.Background()

	workflow, err := st.SaveWorkflow(ctx, loginWorkflow())
	require.NoError(t, err)

	template, err := engine.GenerateFromWorkflow(ctx, workflow.ID, "login template")
	require.NoError(t, err)

	instance, err := engine.Instantiate(ctx, template.ID, map[string]string{
		"base_url":   "https://staging.example.com",
		"user_email": "qa@example.com",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, instance.ID)
	assert.NotEqual(t, workflow.ID, instance.ID)
	assert.Equal(t, "https://staging.example.com/login", instance.Steps[0].Navigation.URL)
	assert.Equal(t, "qa@example.com", instance.Steps[1].Input.Value)
	assert.Equal(t, len(instance.Steps), instance.Metadata.StepCount)

	// Usage is bumped on the stored template.
	stored, err := st.TemplateByID(ctx, template.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Metadata.Usage)
}

func TestInstantiateMissingRequiredVariable(t *testing.T) {
	engine, st := newTestEngine(t)
	ctx := context.Background()

	workflow, err := st.SaveWorkflow(ctx, loginWorkflow())
	require.NoError(t, err)

	template, err := engine.GenerateFromWorkflow(ctx, workflow.ID, "login template")
	require.NoError(t, err)

	_, err = engine.Instantiate(ctx, template.ID, map[string]string{"base_url": "https://x.test"})

	assert.ErrorIs(t, err, ErrMissingRequiredVariable)
}

func TestInferType(t *testing.T) {
	tests := []struct {
		name     string
		expected models.VariableType
	}{
		{"user_email", models.VariableTypeEmail},
		{"base_url", models.VariableTypeURL},
		{"profile_link", models.VariableTypeURL},
		{"phone", models.VariableTypePhone},
		{"start_date", models.VariableTypeDate},
		{"order_number", models.VariableTypeNumber},
		{"amount", models.VariableTypeNumber},
		{"username", models.VariableTypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InferType(tt.name))
		})
	}
}

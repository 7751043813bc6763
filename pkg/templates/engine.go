// Package templates converts concrete workflows into parameterized templates
// and materializes workflows back out of them.
package templates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/replaykit/replaykit/pkg/models"
	"github.com/replaykit/replaykit/pkg/persistence"
	"github.com/replaykit/replaykit/pkg/store"
	"github.com/replaykit/replaykit/pkg/variables"
)

// ErrMissingRequiredVariable is returned by Instantiate when a required
// template variable has no value.
var ErrMissingRequiredVariable = errors.New("missing required template variable")

type Engine struct {
	store  *store.Store
	logger *slog.Logger
}

func NewEngine(st *store.Store, logger *slog.Logger) *Engine {
	return &Engine{
		store:  st,
		logger: logger.With("module", "template_engine"),
	}
}

// GenerateFromWorkflow scans the base workflow's steps for variable
// placeholders in any of the three supported syntaxes, infers a semantic
// type per name, and stores a template whose steps keep the placeholder
// syntax the recording used. Fails with persistence.ErrWorkflowNotFound when
// the base workflow does not exist.
func (e *Engine) GenerateFromWorkflow(ctx context.Context, workflowID, name string) (*models.Template, error) {
	workflow, err := e.store.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load base workflow: %w", err)
	}

	names := collectNames(workflow.Steps)

	templateVariables := make([]models.TemplateVariable, 0, len(names))
	for _, varName := range names {
		templateVariables = append(templateVariables, models.TemplateVariable{
			Name:     varName,
			Type:     InferType(varName),
			Required: true,
		})
	}

	template := &models.Template{
		Name:           name,
		Description:    fmt.Sprintf("Template derived from workflow %q", workflow.Name),
		Category:       workflow.Category,
		BaseWorkflowID: workflow.ID,
		Variables:      templateVariables,
		Steps:          workflow.Steps,
	}

	template, err = e.store.SaveTemplate(ctx, template)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Template generated",
		"template_id", template.ID,
		"workflow_id", workflowID,
		"variables", len(templateVariables),
	)

	return template, nil
}

// Instantiate materializes a workflow from a template by resolving its
// variables with the given values. Every required variable must be present.
func (e *Engine) Instantiate(ctx context.Context, templateID string, values map[string]string) (*models.Workflow, error) {
	template, err := e.store.TemplateByID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}

	for _, variable := range template.Variables {
		if !variable.Required {
			continue
		}

		if _, ok := values[variable.Name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingRequiredVariable, variable.Name)
		}
	}

	steps := make([]models.Step, len(template.Steps))
	for i, step := range template.Steps {
		steps[i] = variables.ResolveStep(step, values)
	}

	workflow := &models.Workflow{
		Name:        template.Name,
		Description: fmt.Sprintf("Instantiated from template %q", template.Name),
		Version:     1,
		Steps:       steps,
		Category:    template.Category,
		Metadata: models.WorkflowMetadata{
			StepCount:              len(steps),
			Complexity:             models.Complexity(steps),
			EstimatedExecutionTime: models.EstimateExecutionTime(steps),
		},
	}

	workflow, err = e.store.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, err
	}

	template.Metadata.Usage++
	if _, err := e.store.SaveTemplate(ctx, template); err != nil {
		e.logger.Warn("Failed to update template usage", "template_id", templateID, "error", err)
	}

	return workflow, nil
}

// WorkflowNotFound reports whether err means the base workflow was missing.
func WorkflowNotFound(err error) bool {
	return persistence.IsWorkflowNotFound(err)
}

// InferType guesses a variable's semantic type from its name.
func InferType(name string) models.VariableType {
	lowered := strings.ToLower(name)

	switch {
	case strings.Contains(lowered, "email"):
		return models.VariableTypeEmail
	case strings.Contains(lowered, "url"), strings.Contains(lowered, "link"):
		return models.VariableTypeURL
	case strings.Contains(lowered, "phone"):
		return models.VariableTypePhone
	case strings.Contains(lowered, "date"):
		return models.VariableTypeDate
	case strings.Contains(lowered, "number"), strings.Contains(lowered, "amount"):
		return models.VariableTypeNumber
	default:
		return models.VariableTypeText
	}
}

func collectNames(steps []models.Step) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)

	var walk func(steps []models.Step)
	walk = func(steps []models.Step) {
		for _, step := range steps {
			for _, source := range stepSources(step) {
				for _, name := range variables.Names(source) {
					if !seen[name] {
						seen[name] = true
						names = append(names, name)
					}
				}
			}

			if step.Type == models.StepTypeGroup && step.Group != nil {
				walk(step.Group.Children)
			}
		}
	}
	walk(steps)

	return names
}

func stepSources(step models.Step) []string {
	sources := []string{step.Target}

	switch step.Type {
	case models.StepTypeNavigation:
		if step.Navigation != nil {
			sources = append(sources, step.Navigation.URL)
		}
	case models.StepTypeInput:
		if step.Input != nil {
			sources = append(sources, step.Input.Value)
		}
	case models.StepTypeWait:
		if step.Wait != nil {
			sources = append(sources, step.Wait.Text)
		}
	case models.StepTypeValidate:
		if step.Validate != nil {
			sources = append(sources, step.Validate.Expected)
		}
	case models.StepTypeClick, models.StepTypeExtract, models.StepTypeGroup:
	}

	return sources
}

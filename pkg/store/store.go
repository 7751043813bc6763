// Package store is the persistence façade used by the recorder, the
// execution engine and the template engine. It owns ID allocation and
// created/modified stamping; everything below it is the persistence layer.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/replaykit/replaykit/pkg/models"
	"github.com/replaykit/replaykit/pkg/persistence"
)

type Store struct {
	persistence persistence.Persistence
}

func NewStore(p persistence.Persistence) *Store {
	return &Store{persistence: p}
}

func (s *Store) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := s.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (s *Store) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := s.persistence.Workflows(ctx)
	if err != nil {
		return make([]*models.Workflow, 0), err
	}

	return workflows, nil
}

func (s *Store) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	return s.persistence.WorkflowByID(ctx, id)
}

// SaveWorkflow persists a workflow, allocating an ID and stamping timestamps
// on first save. Saving the same ID twice overwrites.
func (s *Store) SaveWorkflow(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	now := time.Now()

	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
		workflow.CreatedAt = now
	}

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if err := s.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}

func (s *Store) DeleteWorkflow(ctx context.Context, id string) error {
	return s.persistence.DeleteWorkflow(ctx, id)
}

func (s *Store) Templates(ctx context.Context) ([]*models.Template, error) {
	templates, err := s.persistence.Templates(ctx)
	if err != nil {
		return make([]*models.Template, 0), err
	}

	return templates, nil
}

func (s *Store) TemplateByID(ctx context.Context, id string) (*models.Template, error) {
	return s.persistence.TemplateByID(ctx, id)
}

func (s *Store) SaveTemplate(ctx context.Context, template *models.Template) (*models.Template, error) {
	if template.ID == "" {
		template.ID = uuid.New().String()
	}

	if template.Metadata.Created.IsZero() {
		template.Metadata.Created = time.Now()
	}

	if err := s.persistence.SaveTemplate(ctx, template); err != nil {
		return nil, err
	}

	return template, nil
}

func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	return s.persistence.DeleteTemplate(ctx, id)
}

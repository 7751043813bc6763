// Package persistence provides data storage abstraction for workflows and
// templates.
package persistence

import (
	"context"

	"github.com/replaykit/replaykit/pkg/models"
)

type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error

	Templates(ctx context.Context) ([]*models.Template, error)
	SaveTemplate(ctx context.Context, template *models.Template) error
	TemplateByID(ctx context.Context, id string) (*models.Template, error)
	DeleteTemplate(ctx context.Context, id string) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

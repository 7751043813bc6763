// Package redis provides Redis-backed persistence for workflows and
// templates, for deployments where several processes share one store.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	redis "github.com/redis/go-redis/v9"
	"github.com/replaykit/replaykit/pkg/models"
	"github.com/replaykit/replaykit/pkg/persistence"
)

const workflowKeyPrefix = "replaykit:workflows"
const templateKeyPrefix = "replaykit:templates"

// Persistence implements persistence.Persistence on a Redis hash per record
// kind. Documents are stored as JSON values keyed by ID.
type Persistence struct {
	client redis.UniversalClient
}

func NewPersistence(url string) (*Persistence, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	return &Persistence{client: redis.NewClient(opts)}, nil
}

func NewPersistenceWithClient(client redis.UniversalClient) *Persistence {
	return &Persistence{client: client}
}

func (rp *Persistence) Close(_ context.Context) error {
	return rp.client.Close()
}

func (rp *Persistence) HealthCheck(ctx context.Context) error {
	return rp.client.Ping(ctx).Err()
}

func (rp *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	values, err := rp.client.HGetAll(ctx, workflowKeyPrefix).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(values))

	for id, value := range values {
		var workflow models.Workflow
		if err := json.Unmarshal([]byte(value), &workflow); err != nil {
			return nil, persistence.NewWorkflowError("List", id, err)
		}

		workflows = append(workflows, &workflow)
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.After(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (rp *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	data, err := json.Marshal(workflow)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	if err := rp.client.HSet(ctx, workflowKeyPrefix, workflow.ID, data).Err(); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

func (rp *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	value, err := rp.client.HGet(ctx, workflowKeyPrefix, id).Result()
	if err == redis.Nil {
		return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	var workflow models.Workflow
	if err := json.Unmarshal([]byte(value), &workflow); err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	return &workflow, nil
}

func (rp *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	removed, err := rp.client.HDel(ctx, workflowKeyPrefix, id).Result()
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	if removed == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func (rp *Persistence) Templates(ctx context.Context) ([]*models.Template, error) {
	values, err := rp.client.HGetAll(ctx, templateKeyPrefix).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	templates := make([]*models.Template, 0, len(values))

	for id, value := range values {
		var template models.Template
		if err := json.Unmarshal([]byte(value), &template); err != nil {
			return nil, persistence.NewTemplateError("List", id, err)
		}

		templates = append(templates, &template)
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Metadata.Created.After(templates[j].Metadata.Created)
	})

	return templates, nil
}

func (rp *Persistence) SaveTemplate(ctx context.Context, template *models.Template) error {
	data, err := json.Marshal(template)
	if err != nil {
		return persistence.NewTemplateError("Save", template.ID, err)
	}

	if err := rp.client.HSet(ctx, templateKeyPrefix, template.ID, data).Err(); err != nil {
		return persistence.NewTemplateError("Save", template.ID, err)
	}

	return nil
}

func (rp *Persistence) TemplateByID(ctx context.Context, id string) (*models.Template, error) {
	value, err := rp.client.HGet(ctx, templateKeyPrefix, id).Result()
	if err == redis.Nil {
		return nil, persistence.NewTemplateError("GetByID", id, persistence.ErrTemplateNotFound)
	}

	if err != nil {
		return nil, persistence.NewTemplateError("GetByID", id, err)
	}

	var template models.Template
	if err := json.Unmarshal([]byte(value), &template); err != nil {
		return nil, persistence.NewTemplateError("GetByID", id, err)
	}

	return &template, nil
}

func (rp *Persistence) DeleteTemplate(ctx context.Context, id string) error {
	removed, err := rp.client.HDel(ctx, templateKeyPrefix, id).Result()
	if err != nil {
		return persistence.NewTemplateError("Delete", id, err)
	}

	if removed == 0 {
		return persistence.NewTemplateError("Delete", id, persistence.ErrTemplateNotFound)
	}

	return nil
}

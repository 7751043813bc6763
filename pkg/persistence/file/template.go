package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/replaykit/replaykit/pkg/models"
	"github.com/replaykit/replaykit/pkg/persistence"
)

func (fp *Persistence) Templates(ctx context.Context) ([]*models.Template, error) {
	dir := fp.templatesDir()
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return make([]*models.Template, 0), nil
	}

	ids, err := listIDs(dir)
	if err != nil {
		return nil, err
	}

	templates := make([]*models.Template, 0, len(ids))

	for _, id := range ids {
		template, err := fp.TemplateByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load template %s: %w", id, err)
		}

		templates = append(templates, template)
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Metadata.Created.After(templates[j].Metadata.Created)
	})

	return templates, nil
}

func (fp *Persistence) SaveTemplate(_ context.Context, template *models.Template) error {
	if err := writeDocument(fp.templatesDir(), template.ID, template); err != nil {
		return persistence.NewTemplateError("Save", template.ID, err)
	}

	return nil
}

func (fp *Persistence) TemplateByID(_ context.Context, id string) (*models.Template, error) {
	data, err := os.ReadFile(filepath.Join(fp.templatesDir(), id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewTemplateError("GetByID", id, persistence.ErrTemplateNotFound)
		}

		return nil, persistence.NewTemplateError("GetByID", id, err)
	}

	var template models.Template
	if err := json.Unmarshal(data, &template); err != nil {
		return nil, persistence.NewTemplateError("GetByID", id, err)
	}

	return &template, nil
}

func (fp *Persistence) DeleteTemplate(_ context.Context, id string) error {
	err := os.Remove(filepath.Join(fp.templatesDir(), id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewTemplateError("Delete", id, persistence.ErrTemplateNotFound)
		}

		return persistence.NewTemplateError("Delete", id, err)
	}

	return nil
}

// Package assist drafts human-readable names, descriptions and tags for
// finished recordings. The engine only ever calls it through the Namer
// interface and works fully without any external assist service; the
// heuristic implementation below is the default.
package assist

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/replaykit/replaykit/pkg/models"
)

// Namer drafts descriptive metadata for a step list. Implementations may
// call out to an external service; errors must degrade, not fail recording.
type Namer interface {
	Describe(ctx context.Context, name string, steps []models.Step) (Description, error)
}

type Description struct {
	Description string
	Tags        []string
	Category    string
}

// HeuristicNamer derives metadata deterministically from the action profile
// of the recording.
type HeuristicNamer struct{}

func NewHeuristicNamer() *HeuristicNamer {
	return &HeuristicNamer{}
}

func (n *HeuristicNamer) Describe(_ context.Context, name string, steps []models.Step) (Description, error) {
	counts := countTypes(steps)

	return Description{
		Description: describe(name, counts, len(steps)),
		Tags:        tags(counts),
		Category:    category(counts),
	}, nil
}

func countTypes(steps []models.Step) map[models.StepType]int {
	counts := make(map[models.StepType]int)

	for _, step := range steps {
		if step.Type == models.StepTypeGroup && step.Group != nil {
			for _, child := range step.Group.Children {
				counts[child.Type]++
			}

			continue
		}

		counts[step.Type]++
	}

	return counts
}

func describe(name string, counts map[models.StepType]int, total int) string {
	if total == 0 {
		return fmt.Sprintf("Empty workflow %q.", name)
	}

	parts := make([]string, 0, len(counts))
	for stepType, count := range counts {
		parts = append(parts, fmt.Sprintf("%d %s", count, stepType))
	}

	sort.Strings(parts)

	return fmt.Sprintf("Recorded workflow %q with %d steps (%s).", name, total, strings.Join(parts, ", "))
}

func tags(counts map[models.StepType]int) []string {
	result := make([]string, 0, 4)

	if counts[models.StepTypeNavigation] > 0 {
		result = append(result, "navigation")
	}

	if counts[models.StepTypeInput] > 0 {
		result = append(result, "form")
	}

	if counts[models.StepTypeExtract] > 0 {
		result = append(result, "scraping")
	}

	if counts[models.StepTypeValidate] > 0 {
		result = append(result, "verification")
	}

	return result
}

func category(counts map[models.StepType]int) string {
	switch {
	case counts[models.StepTypeExtract] > 0:
		return "data-extraction"
	case counts[models.StepTypeInput] > counts[models.StepTypeNavigation]:
		return "form-automation"
	case counts[models.StepTypeNavigation] > 0:
		return "browsing"
	default:
		return "general"
	}
}

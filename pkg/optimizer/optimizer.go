// Package optimizer implements the post-recording optimization pipeline.
// Each pass is pure: it takes a step list and returns a new one. The
// pipeline never changes what a workflow does, only how it is expressed.
package optimizer

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/replaykit/replaykit/pkg/models"
)

// Two steps are duplicates when type, action and target match and their
// timestamps are closer than this window. Typing steps inside the window are
// merged instead of dropped.
const duplicateWindow = 1000 * time.Millisecond

// Adjacent navigations closer than this are folded into one group.
const navigationGroupWindow = 5000 * time.Millisecond

const navigationWaitTimeout = 10000 * time.Millisecond
const elementWaitTimeout = 5000 * time.Millisecond

type Optimizer struct {
	logger *slog.Logger
}

func NewOptimizer(logger *slog.Logger) *Optimizer {
	return &Optimizer{
		logger: logger.With("module", "optimizer"),
	}
}

// Optimize runs the full pipeline over a frozen step list: redundancy
// removal, grouping, smart-wait insertion, selector hardening.
func (o *Optimizer) Optimize(steps []models.Step, settings models.RecordingSettings) []models.Step {
	before := len(steps)

	optimized := RemoveRedundancy(steps)
	if settings.SmartGrouping {
		optimized = GroupRelated(optimized)
	}

	optimized = InsertSmartWaits(optimized)
	optimized = HardenSelectors(optimized)

	o.logger.Debug("optimization pipeline finished",
		"steps_before", before,
		"steps_after", len(optimized),
	)

	return optimized
}

// RemoveRedundancy merges same-target typing steps and drops exact
// duplicates that survived real-time filtering.
func RemoveRedundancy(steps []models.Step) []models.Step {
	result := make([]models.Step, 0, len(steps))

	for _, step := range steps {
		if len(result) == 0 {
			result = append(result, step)

			continue
		}

		last := &result[len(result)-1]

		if IsTypingMerge(*last, step) {
			merged := *last.Input
			merged.Value += step.Input.Value
			last.Input = &merged
			last.Timestamp = step.Timestamp

			continue
		}

		if IsDuplicate(*last, step) {
			continue
		}

		result = append(result, step)
	}

	return result
}

// IsDuplicate reports whether b repeats a: same type, action and target
// within the duplicate window. Typing steps are never duplicates; they merge.
func IsDuplicate(a, b models.Step) bool {
	if a.Type != b.Type || a.Action != b.Action || a.Target != b.Target {
		return false
	}

	if a.Type == models.StepTypeInput {
		return false
	}

	return b.Timestamp.Sub(a.Timestamp).Abs() < duplicateWindow
}

// IsTypingMerge reports whether b continues typing into a's target within
// the duplicate window.
func IsTypingMerge(a, b models.Step) bool {
	if a.Type != models.StepTypeInput || b.Type != models.StepTypeInput {
		return false
	}

	if a.Target != b.Target || a.Input == nil || b.Input == nil {
		return false
	}

	return b.Timestamp.Sub(a.Timestamp).Abs() < duplicateWindow
}

// GroupRelated folds adjacent related steps into synthetic group steps:
// inputs sharing a form ancestor and navigations close in time. A single
// pass, no transitive re-grouping; when only one group would result the
// original list is kept.
func GroupRelated(steps []models.Step) []models.Step {
	result := make([]models.Step, 0, len(steps))
	groups := 0

	for i := 0; i < len(steps); {
		run := []models.Step{steps[i]}
		j := i + 1

		for j < len(steps) && relatedSteps(steps[j-1], steps[j]) {
			run = append(run, steps[j])
			j++
		}

		if len(run) > 1 {
			result = append(result, newGroupStep(run))
			groups++
		} else {
			result = append(result, steps[i])
		}

		i = j
	}

	// Wrapping a trivial recording in one big group helps nobody.
	if groups <= 1 {
		return steps
	}

	return result
}

func relatedSteps(a, b models.Step) bool {
	if a.Type == models.StepTypeInput && b.Type == models.StepTypeInput {
		formA, okA := a.Context["form"].(string)
		formB, okB := b.Context["form"].(string)

		return okA && okB && formA != "" && formA == formB
	}

	if a.Type == models.StepTypeNavigation && b.Type == models.StepTypeNavigation {
		return b.Timestamp.Sub(a.Timestamp).Abs() < navigationGroupWindow
	}

	return false
}

func newGroupStep(children []models.Step) models.Step {
	reason := "related-navigation"
	if children[0].Type == models.StepTypeInput {
		reason = "form-fill"
	}

	return models.Step{
		ID:        uuid.New().String(),
		Timestamp: children[0].Timestamp,
		Type:      models.StepTypeGroup,
		Action:    "group",
		Group: &models.GroupData{
			Children: children,
			Reason:   reason,
		},
	}
}

// InsertSmartWaits inserts synthetic wait steps around steps known to race
// against the page: a navigation wait after link-like clicks and an
// element-visible wait before an input that follows a submit-like click.
// Synthetic steps are inserted, never replacing recorded ones.
func InsertSmartWaits(steps []models.Step) []models.Step {
	result := make([]models.Step, 0, len(steps))

	for i, step := range steps {
		if step.Type == models.StepTypeInput && i > 0 &&
			steps[i-1].Type == models.StepTypeClick && looksLikeSubmit(steps[i-1].Target) {
			result = append(result, waitStep(models.WaitElementVisible, step.Target, elementWaitTimeout, step.Timestamp))
		}

		result = append(result, step)

		if step.Type == models.StepTypeClick && looksLikeLink(step) {
			result = append(result, waitStep(models.WaitPageLoad, "", navigationWaitTimeout, step.Timestamp))
		}
	}

	return result
}

func waitStep(condition models.WaitCondition, target string, timeout time.Duration, at time.Time) models.Step {
	return models.Step{
		ID:        uuid.New().String(),
		Timestamp: at,
		Type:      models.StepTypeWait,
		Action:    "smart-wait",
		Target:    target,
		Wait: &models.WaitData{
			Condition: condition,
			Timeout:   timeout,
		},
	}
}

package patterns

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/replaykit/replaykit/pkg/eventbus"
	"github.com/replaykit/replaykit/pkg/events"
	"github.com/replaykit/replaykit/pkg/models"
)

const minPatternLength = 2
const maxPatternLength = 5

// A signature seen this many times counts as established for redundancy
// suggestions.
const frequentThreshold = 3

// Recognizer extracts repeated step n-grams across workflows and keeps a
// running list of advisory suggestions. Suggestions never mutate workflows.
type Recognizer struct {
	store    Store
	eventBus eventbus.EventBus
	logger   *slog.Logger

	mu          sync.Mutex
	suggestions []models.Suggestion
}

func NewRecognizer(store Store, eventBus eventbus.EventBus, logger *slog.Logger) *Recognizer {
	return &Recognizer{
		store:    store,
		eventBus: eventBus,
		logger:   logger.With("module", "pattern_recognizer"),
	}
}

// Learn ingests a finalized workflow: every contiguous sub-sequence of
// length 2-5 is upserted into the pattern table, then the workflow is
// scanned for suggestion candidates. Learning failures are logged and
// swallowed; pattern mining must never break recording.
func (r *Recognizer) Learn(ctx context.Context, workflow *models.Workflow) {
	steps := flatten(workflow.Steps)

	for length := minPatternLength; length <= maxPatternLength; length++ {
		for start := 0; start+length <= len(steps); start++ {
			window := steps[start : start+length]

			_, err := r.store.Upsert(ctx, Signature(window), length, window)
			if err != nil {
				r.logger.Warn("Failed to record pattern", "workflow_id", workflow.ID, "error", err)

				return
			}
		}
	}

	suggestions := r.scan(ctx, workflow.ID, steps)
	if len(suggestions) == 0 {
		return
	}

	r.mu.Lock()
	r.suggestions = append(r.suggestions, suggestions...)
	r.mu.Unlock()

	r.emit(ctx, workflow.ID, suggestions)
}

// Suggestions returns a copy of the running suggestion list.
func (r *Recognizer) Suggestions() []models.Suggestion {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]models.Suggestion, len(r.suggestions))
	copy(result, r.suggestions)

	return result
}

// Signature builds the ordered "type:action" signature of a step window.
func Signature(steps []models.Step) string {
	tokens := make([]string, len(steps))
	for i, step := range steps {
		tokens[i] = step.Signature()
	}

	return strings.Join(tokens, ",")
}

func (r *Recognizer) scan(ctx context.Context, workflowID string, steps []models.Step) []models.Suggestion {
	suggestions := make([]models.Suggestion, 0)

	if candidate := parallelCandidate(workflowID, steps); candidate != nil {
		suggestions = append(suggestions, *candidate)
	}

	suggestions = append(suggestions, r.redundancyCandidates(ctx, workflowID, steps)...)

	return suggestions
}

// parallelCandidate looks for a run of read-only steps on distinct targets.
// Such steps share no data dependency and could run concurrently.
func parallelCandidate(workflowID string, steps []models.Step) *models.Suggestion {
	runStart := -1

	for i := 0; i <= len(steps); i++ {
		readOnly := i < len(steps) && isReadOnly(steps[i])

		if readOnly && runStart < 0 {
			runStart = i

			continue
		}

		if !readOnly && runStart >= 0 {
			run := steps[runStart:i]
			if len(run) >= 2 && distinctTargets(run) {
				ids := make([]string, len(run))
				for j, step := range run {
					ids[j] = step.ID
				}

				return &models.Suggestion{
					Kind:       models.SuggestionParallelization,
					WorkflowID: workflowID,
					StepIDs:    ids,
					Message:    fmt.Sprintf("%d read-only steps on distinct targets could run concurrently", len(run)),
					CreatedAt:  time.Now(),
				}
			}

			runStart = -1
		}
	}

	return nil
}

func (r *Recognizer) redundancyCandidates(ctx context.Context, workflowID string, steps []models.Step) []models.Suggestion {
	suggestions := make([]models.Suggestion, 0)
	reported := make(map[string]bool)

	for length := minPatternLength; length <= maxPatternLength; length++ {
		for start := 0; start+length <= len(steps); start++ {
			window := steps[start : start+length]
			signature := Signature(window)

			if reported[signature] {
				continue
			}

			pattern, err := r.store.Get(ctx, signature)
			if err != nil {
				r.logger.Warn("Failed to look up pattern", "signature", signature, "error", err)

				continue
			}

			if pattern == nil || pattern.Frequency < frequentThreshold {
				continue
			}

			reported[signature] = true

			ids := make([]string, len(window))
			for i, step := range window {
				ids[i] = step.ID
			}

			suggestions = append(suggestions, models.Suggestion{
				Kind:       models.SuggestionRedundancy,
				WorkflowID: workflowID,
				StepIDs:    ids,
				Signature:  signature,
				Message:    fmt.Sprintf("sequence seen %d times across workflows; consider extracting a template", pattern.Frequency),
				CreatedAt:  time.Now(),
			})
		}
	}

	return suggestions
}

func (r *Recognizer) emit(ctx context.Context, workflowID string, suggestions []models.Suggestion) {
	if r.eventBus == nil {
		return
	}

	event := events.OptimizationSuggestions{
		BaseEvent: events.BaseEvent{
			ID:        uuid.New().String(),
			Type:      events.OptimizationSuggestionsEvent,
			Timestamp: time.Now(),
		},
		WorkflowID:  workflowID,
		Suggestions: suggestions,
	}

	if err := r.eventBus.Publish(ctx, workflowID, event); err != nil {
		r.logger.Error("Failed to publish suggestions", "workflow_id", workflowID, "error", err)
	}
}

func isReadOnly(step models.Step) bool {
	return step.Type == models.StepTypeExtract || step.Type == models.StepTypeValidate
}

func distinctTargets(steps []models.Step) bool {
	seen := make(map[string]bool)

	for _, step := range steps {
		if seen[step.Target] {
			return false
		}

		seen[step.Target] = true
	}

	return true
}

// flatten expands group steps so pattern mining sees the underlying actions.
func flatten(steps []models.Step) []models.Step {
	result := make([]models.Step, 0, len(steps))

	for _, step := range steps {
		if step.Type == models.StepTypeGroup && step.Group != nil {
			result = append(result, flatten(step.Group.Children)...)

			continue
		}

		result = append(result, step)
	}

	return result
}

// Package recorder owns the capture side of the engine: the exclusive
// recording session, real-time step filtering and the hand-off to the
// optimizer and the store when a recording stops.
package recorder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/replaykit/replaykit/pkg/assist"
	"github.com/replaykit/replaykit/pkg/eventbus"
	"github.com/replaykit/replaykit/pkg/events"
	"github.com/replaykit/replaykit/pkg/models"
	"github.com/replaykit/replaykit/pkg/optimizer"
	"github.com/replaykit/replaykit/pkg/patterns"
	"github.com/replaykit/replaykit/pkg/store"
	"github.com/replaykit/replaykit/pkg/variables"
)

var (
	// ErrAlreadyRecording is returned when Start is called while a session
	// is active. Recording is exclusive; a second session never queues.
	ErrAlreadyRecording = errors.New("a recording session is already active")

	// ErrNotRecording is returned when Record or Stop is called without an
	// active session.
	ErrNotRecording = errors.New("no recording session is active")
)

// Session is the mutable in-progress capture state between Start and Stop.
type Session struct {
	ID        string
	Name      string
	StartTime time.Time
	Steps     []models.Step
	Context   map[string]any
	Settings  models.RecordingSettings

	filter *StepFilter
}

// Recorder orchestrates capture. At most one session is active process-wide.
type Recorder struct {
	store      *store.Store
	optimizer  *optimizer.Optimizer
	recognizer *patterns.Recognizer
	namer      assist.Namer
	eventBus   eventbus.EventBus
	logger     *slog.Logger

	mu      sync.Mutex
	session *Session
}

func NewRecorder(
	st *store.Store,
	opt *optimizer.Optimizer,
	recognizer *patterns.Recognizer,
	namer assist.Namer,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
) *Recorder {
	return &Recorder{
		store:      st,
		optimizer:  opt,
		recognizer: recognizer,
		namer:      namer,
		eventBus:   eventBus,
		logger:     logger.With("module", "recorder"),
	}
}

// Start begins a new recording session and returns its ID. Fails with
// ErrAlreadyRecording when a session is active.
func (r *Recorder) Start(ctx context.Context, name string, settings models.RecordingSettings, sessionContext map[string]any) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		return "", ErrAlreadyRecording
	}

	session := &Session{
		ID:        uuid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Steps:     make([]models.Step, 0),
		Context:   sessionContext,
		Settings:  settings,
		filter:    NewStepFilter(settings),
	}
	r.session = session

	r.logger.Info("Recording started", "session_id", session.ID, "name", name)

	r.publish(ctx, session.ID, events.RecordingStarted{
		BaseEvent: r.baseEvent(events.RecordingStartedEvent),
		SessionID: session.ID,
		Name:      name,
		Settings:  settings,
	})

	return session.ID, nil
}

// Record handles one captured interaction. Accepted events are appended to
// the session's step list; typing on the same target inside the duplicate
// window merges into the previous step, and with auto-optimize on, an exact
// duplicate of the previous step is collapsed immediately to bound session
// memory during very long recordings.
func (r *Recorder) Record(ctx context.Context, event models.CapturedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := r.session
	if session == nil {
		return ErrNotRecording
	}

	if !session.filter.ShouldRecord(event) {
		return nil
	}

	step, ok := stepFromEvent(event)
	if !ok {
		r.logger.Debug("Dropping malformed captured event", "action", event.Action)

		return nil
	}

	if len(session.Steps) > 0 {
		last := &session.Steps[len(session.Steps)-1]

		if optimizer.IsTypingMerge(*last, step) {
			merged := *last.Input
			merged.Value += step.Input.Value
			last.Input = &merged
			last.Timestamp = step.Timestamp

			return nil
		}

		if session.Settings.AutoOptimize && optimizer.IsDuplicate(*last, step) {
			return nil
		}
	}

	session.Steps = append(session.Steps, step)

	r.publish(ctx, session.ID, events.StepRecorded{
		BaseEvent: r.baseEvent(events.StepRecordedEvent),
		SessionID: session.ID,
		Step:      step,
		StepCount: len(session.Steps),
	})

	return nil
}

// Stop freezes the step list, runs the optimization pipeline, derives
// metadata, persists the resulting workflow and feeds it to the pattern
// recognizer. The session is cleared whether or not persistence succeeds.
func (r *Recorder) Stop(ctx context.Context) (*models.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := r.session
	if session == nil {
		return nil, ErrNotRecording
	}

	r.session = nil

	duration := time.Since(session.StartTime)
	steps := r.optimizer.Optimize(session.Steps, session.Settings)

	workflow := &models.Workflow{
		Name:    session.Name,
		Version: 1,
		Steps:   steps,
		Context: session.Context,
		Metadata: models.WorkflowMetadata{
			Duration:               duration,
			StepCount:              len(steps),
			Complexity:             models.Complexity(steps),
			EstimatedExecutionTime: models.EstimateExecutionTime(steps),
		},
		Settings:  session.Settings,
		Variables: collectVariables(steps),
	}

	r.describe(ctx, workflow)

	workflow, err := r.store.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Recording stopped",
		"session_id", session.ID,
		"workflow_id", workflow.ID,
		"steps", len(steps),
		"duration", duration,
	)

	if r.recognizer != nil {
		r.recognizer.Learn(ctx, workflow)
	}

	r.publish(ctx, session.ID, events.RecordingStopped{
		BaseEvent:  r.baseEvent(events.RecordingStoppedEvent),
		SessionID:  session.ID,
		WorkflowID: workflow.ID,
		StepCount:  len(steps),
		Duration:   duration,
	})

	return workflow, nil
}

// Active reports whether a session is currently recording.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.session != nil
}

func (r *Recorder) describe(ctx context.Context, workflow *models.Workflow) {
	namer := r.namer
	if namer == nil {
		namer = assist.NewHeuristicNamer()
	}

	description, err := namer.Describe(ctx, workflow.Name, workflow.Steps)
	if err != nil {
		r.logger.Warn("Assist naming failed, falling back to heuristics", "error", err)

		description, _ = assist.NewHeuristicNamer().Describe(ctx, workflow.Name, workflow.Steps)
	}

	workflow.Description = description.Description
	workflow.Tags = description.Tags
	workflow.Category = description.Category
}

func (r *Recorder) publish(ctx context.Context, key string, event eventbus.Event) {
	if r.eventBus == nil {
		return
	}

	if err := r.eventBus.Publish(ctx, key, event); err != nil {
		r.logger.Error("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func (r *Recorder) baseEvent(eventType events.EventType) events.BaseEvent {
	id := uuid.New().String()
	if r.eventBus != nil {
		id = r.eventBus.GenerateID()
	}

	return events.BaseEvent{
		ID:        id,
		Type:      eventType,
		Timestamp: time.Now(),
	}
}

// stepFromEvent converts a captured event into a typed step. Events whose
// payload cannot be formed are reported as not ok and dropped by the caller.
func stepFromEvent(event models.CapturedEvent) (models.Step, bool) {
	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	step := models.Step{
		ID:        uuid.New().String(),
		Timestamp: timestamp,
		Type:      event.Type,
		Action:    event.Action,
		Target:    event.Target,
		Context:   event.Context,
	}

	switch event.Type {
	case models.StepTypeNavigation:
		if event.URL == "" {
			return models.Step{}, false
		}

		step.Navigation = &models.NavigationData{URL: event.URL}
	case models.StepTypeClick:
		if event.Target == "" {
			return models.Step{}, false
		}

		step.Click = &models.ClickData{}
	case models.StepTypeInput:
		if event.Target == "" {
			return models.Step{}, false
		}

		step.Input = &models.InputData{Value: event.Value, Clear: true}
	case models.StepTypeExtract:
		step.Extract = &models.ExtractData{}
	case models.StepTypeValidate:
		step.Validate = &models.ValidateData{Assertion: "exists"}
	case models.StepTypeWait:
		step.Wait = &models.WaitData{}
	case models.StepTypeGroup:
		return models.Step{}, false
	default:
		return models.Step{}, false
	}

	return step, true
}

func collectVariables(steps []models.Step) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)

	var walk func(steps []models.Step)
	walk = func(steps []models.Step) {
		for _, step := range steps {
			for _, name := range stepVariableNames(step) {
				if !seen[name] {
					seen[name] = true
					names = append(names, name)
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

func stepVariableNames(step models.Step) []string {
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
	case models.StepTypeValidate:
		if step.Validate != nil {
			sources = append(sources, step.Validate.Expected)
		}
	case models.StepTypeClick, models.StepTypeWait, models.StepTypeExtract, models.StepTypeGroup:
	}

	names := make([]string, 0)
	for _, source := range sources {
		names = append(names, variables.Names(source)...)
	}

	return names
}

// Package execution interprets stored workflows against the browser control
// surface: sequential step dispatch, per-request timeouts, step-local
// recovery with linear backoff, and replay-time variable resolution.
package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/replaykit/replaykit/pkg/browser"
	"github.com/replaykit/replaykit/pkg/eventbus"
	"github.com/replaykit/replaykit/pkg/events"
	"github.com/replaykit/replaykit/pkg/models"
	"github.com/replaykit/replaykit/pkg/otelhelper"
	"github.com/replaykit/replaykit/pkg/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const defaultRetryAttempts = 3
const defaultRetryDelay = 1000 * time.Millisecond

// Config bounds the step-local recovery policy.
type Config struct {
	// RetryAttempts is the recovery bound per execution.
	RetryAttempts int
	// RetryDelay is the base of the linear backoff: the engine waits
	// RetryDelay × retryCount before re-invoking a failed step.
	RetryDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		RetryAttempts: defaultRetryAttempts,
		RetryDelay:    defaultRetryDelay,
	}
}

// Engine runs workflows. Concurrent executions are independent; each is
// tracked in a running-set keyed by execution ID with no shared step cursor.
type Engine struct {
	store    *store.Store
	surface  browser.Surface
	eventBus eventbus.EventBus
	tracer   trace.Tracer
	logger   *slog.Logger
	config   Config

	mu      sync.Mutex
	running map[string]*models.Execution
}

func NewEngine(
	st *store.Store,
	surface browser.Surface,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
	logger *slog.Logger,
	config Config,
) *Engine {
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = defaultRetryAttempts
	}

	if config.RetryDelay <= 0 {
		config.RetryDelay = defaultRetryDelay
	}

	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("replaykit")
	}

	return &Engine{
		store:    st,
		surface:  surface,
		eventBus: eventBus,
		tracer:   tracer,
		logger:   logger.With("module", "execution_engine"),
		config:   config,
		running:  make(map[string]*models.Execution),
	}
}

// Execute runs the workflow with the given parameters. The returned
// Execution is always populated, also on failure, so callers can inspect
// which step failed. The error is non-nil exactly when the run did not
// complete.
func (e *Engine) Execute(ctx context.Context, workflowID string, parameters map[string]string) (*models.Execution, error) {
	workflow, err := e.store.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	execution := &models.Execution{
		ID:         "exec-" + uuid.New().String()[:8],
		WorkflowID: workflowID,
		StartTime:  time.Now(),
		Parameters: parameters,
		Status:     models.ExecutionStatusRunning,
		Results:    make(map[int]any),
	}

	e.mu.Lock()
	e.running[execution.ID] = execution
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.running, execution.ID)
		e.mu.Unlock()
	}()

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
	)
	defer span.End()

	logger := e.logger.With("workflow_id", workflowID, "execution_id", execution.ID)
	logger.Info("Starting execution of workflow", "steps", len(workflow.Steps))

	e.publish(ctx, execution.ID, events.ExecutionStarted{
		BaseEvent:   e.baseEvent(events.ExecutionStartedEvent),
		ExecutionID: execution.ID,
		WorkflowID:  workflowID,
		StepCount:   len(workflow.Steps),
	})

	runErr := e.runSteps(ctx, workflow, execution, logger)

	execution.EndTime = time.Now()

	switch {
	case runErr == nil:
		execution.Status = models.ExecutionStatusCompleted
		logger.Info("Execution completed", "duration", execution.Duration())
		e.publish(ctx, execution.ID, events.ExecutionCompleted{
			BaseEvent:   e.baseEvent(events.ExecutionCompletedEvent),
			ExecutionID: execution.ID,
			WorkflowID:  workflowID,
			Duration:    execution.Duration(),
		})
	case execution.Status == models.ExecutionStatusCancelling:
		execution.Status = models.ExecutionStatusCancelled
		logger.Info("Execution cancelled", "step", execution.CurrentStep)
	default:
		execution.Status = models.ExecutionStatusFailed
		otelhelper.SetError(span, runErr)
		logger.Error("Execution failed", "step", execution.CurrentStep, "error", runErr)
		e.publish(ctx, execution.ID, events.ExecutionFailed{
			BaseEvent:   e.baseEvent(events.ExecutionFailedEvent),
			ExecutionID: execution.ID,
			WorkflowID:  workflowID,
			StepIndex:   execution.CurrentStep,
			Error:       runErr.Error(),
			Duration:    execution.Duration(),
		})
	}

	return execution, runErr
}

func (e *Engine) runSteps(ctx context.Context, workflow *models.Workflow, execution *models.Execution, logger *slog.Logger) error {
	total := len(workflow.Steps)

	for index, step := range workflow.Steps {
		if e.cancelled(execution) {
			return ErrExecutionCancelled
		}

		execution.CurrentStep = index

		e.publish(ctx, execution.ID, events.StepExecuting{
			BaseEvent:   e.baseEvent(events.StepExecutingEvent),
			ExecutionID: execution.ID,
			WorkflowID:  workflow.ID,
			StepID:      step.ID,
			StepIndex:   index,
			StepType:    string(step.Type),
		})

		result, err := e.runStepWithRecovery(ctx, step, execution, logger)
		if err != nil {
			execution.Errors = append(execution.Errors, models.ExecutionError{
				StepIndex: index,
				StepID:    step.ID,
				Message:   err.Error(),
				Timestamp: time.Now(),
			})

			return err
		}

		execution.Results[index] = result

		e.publish(ctx, execution.ID, events.ExecutionProgress{
			BaseEvent:   e.baseEvent(events.ExecutionProgressEvent),
			ExecutionID: execution.ID,
			WorkflowID:  workflow.ID,
			StepIndex:   index,
			Fraction:    float64(index+1) / float64(total),
		})
	}

	return nil
}

// Cancel requests cooperative cancellation of a running execution. The
// request takes effect at the next iteration boundary; an in-flight request
// already dispatched is allowed to finish.
func (e *Engine) Cancel(executionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	execution, ok := e.running[executionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrExecutionNotFound, executionID)
	}

	execution.Status = models.ExecutionStatusCancelling

	return nil
}

// Running returns the execution with the given ID while it is in flight.
func (e *Engine) Running(executionID string) (*models.Execution, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	execution, ok := e.running[executionID]

	return execution, ok
}

func (e *Engine) cancelled(execution *models.Execution) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return execution.Status == models.ExecutionStatusCancelling
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	if err := e.eventBus.Publish(ctx, key, event); err != nil {
		e.logger.Error("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func (e *Engine) baseEvent(eventType events.EventType) events.BaseEvent {
	id := uuid.New().String()
	if e.eventBus != nil {
		id = e.eventBus.GenerateID()
	}

	return events.BaseEvent{
		ID:        id,
		Type:      eventType,
		Timestamp: time.Now(),
	}
}

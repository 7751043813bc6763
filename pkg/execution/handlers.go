package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/replaykit/replaykit/pkg/browser"
	"github.com/replaykit/replaykit/pkg/models"
	"github.com/replaykit/replaykit/pkg/otelhelper"
	"github.com/replaykit/replaykit/pkg/variables"
	"go.opentelemetry.io/otel/attribute"
)

// Per-request timeouts. Timeouts are per request, not per workflow; a long
// workflow has no aggregate deadline.
const (
	navigationTimeout  = 10000 * time.Millisecond
	clickTimeout       = 5000 * time.Millisecond
	inputTimeout       = 5000 * time.Millisecond
	defaultWaitTimeout = 10000 * time.Millisecond
	defaultSleep       = 1000 * time.Millisecond
	conditionPollEvery = 100 * time.Millisecond
)

// runStep resolves the step's variables against the execution parameters and
// dispatches to the type handler. Unresolved placeholders pass through
// literally.
func (e *Engine) runStep(ctx context.Context, step models.Step, execution *models.Execution) (any, error) {
	resolved := variables.ResolveStep(step, execution.Parameters)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.step",
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
		attribute.String(otelhelper.StepIDKey, step.ID),
		attribute.String(otelhelper.StepTypeKey, string(step.Type)),
	)
	defer span.End()

	var (
		result any
		err    error
	)

	switch resolved.Type {
	case models.StepTypeNavigation:
		result, err = e.runNavigation(ctx, resolved)
	case models.StepTypeClick:
		result, err = e.runClick(ctx, resolved)
	case models.StepTypeInput:
		result, err = e.runInput(ctx, resolved)
	case models.StepTypeWait:
		result, err = e.runWait(ctx, resolved)
	case models.StepTypeExtract:
		result, err = e.runExtract(ctx, resolved)
	case models.StepTypeValidate:
		result, err = e.runValidate(ctx, resolved)
	case models.StepTypeGroup:
		result, err = e.runGroup(ctx, resolved, execution)
	default:
		err = fmt.Errorf("unknown step type %q", resolved.Type)
	}

	if err != nil {
		otelhelper.SetError(span, err)
	}

	return result, err
}

func (e *Engine) runNavigation(ctx context.Context, step models.Step) (any, error) {
	if step.Navigation == nil {
		return nil, fmt.Errorf("navigation step %s has no payload", step.ID)
	}

	ctx, cancel := context.WithTimeout(ctx, navigationTimeout)
	defer cancel()

	result, err := e.surface.Navigate(ctx, browser.NavigateRequest{
		URL:     step.Navigation.URL,
		WaitFor: step.Navigation.WaitFor,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &TimeoutError{StepID: step.ID, Kind: "navigation", Timeout: navigationTimeout}
		}

		return nil, err
	}

	if !result.Success {
		return nil, &StepError{StepID: step.ID, Kind: "navigation", Message: "navigation reported failure"}
	}

	return result, nil
}

func (e *Engine) runClick(ctx context.Context, step models.Step) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, clickTimeout)
	defer cancel()

	req := browser.ClickRequest{Selector: step.Target}
	if step.Click != nil {
		req.Button = step.Click.Button
		req.DoubleClick = step.Click.DoubleClick
	}

	result, err := e.surface.Click(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &TimeoutError{StepID: step.ID, Kind: "click", Timeout: clickTimeout}
		}

		return nil, err
	}

	if !result.Success {
		return nil, &StepError{StepID: step.ID, Kind: "click", Message: result.Error}
	}

	return result, nil
}

func (e *Engine) runInput(ctx context.Context, step models.Step) (any, error) {
	if step.Input == nil {
		return nil, fmt.Errorf("input step %s has no payload", step.ID)
	}

	ctx, cancel := context.WithTimeout(ctx, inputTimeout)
	defer cancel()

	result, err := e.surface.Input(ctx, browser.InputRequest{
		Selector: step.Target,
		Value:    step.Input.Value,
		Clear:    step.Input.Clear,
		Validate: step.Input.Validate,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &TimeoutError{StepID: step.ID, Kind: "input", Timeout: inputTimeout}
		}

		return nil, err
	}

	if !result.Success {
		return nil, &StepError{StepID: step.ID, Kind: "input", Message: result.Error}
	}

	return result, nil
}

// runWait sleeps when no condition is set, otherwise polls the control
// surface until the condition holds or the timeout elapses.
func (e *Engine) runWait(ctx context.Context, step models.Step) (any, error) {
	data := step.Wait
	if data == nil {
		data = &models.WaitData{}
	}

	if data.Condition == "" {
		duration := data.Duration
		if duration <= 0 {
			duration = defaultSleep
		}

		select {
		case <-time.After(duration):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		return map[string]any{"waited": duration.Milliseconds()}, nil
	}

	timeout := data.Timeout
	if timeout <= 0 {
		timeout = defaultWaitTimeout
	}

	deadline := time.Now().Add(timeout)
	req := browser.ConditionRequest{
		Condition: string(data.Condition),
		Selector:  step.Target,
		Text:      data.Text,
	}

	for {
		met, err := e.surface.CheckCondition(ctx, req)
		if err != nil {
			e.logger.Debug("Condition check errored, continuing to poll", "condition", data.Condition, "error", err)
		}

		if met {
			return map[string]any{"condition": string(data.Condition)}, nil
		}

		if time.Now().After(deadline) {
			return nil, &WaitTimeoutError{StepID: step.ID, Condition: string(data.Condition), Timeout: timeout}
		}

		select {
		case <-time.After(conditionPollEvery):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (e *Engine) runExtract(ctx context.Context, step models.Step) (any, error) {
	req := browser.ExtractRequest{Selector: step.Target}
	if step.Extract != nil {
		req.Attribute = step.Extract.Attribute
	}

	return e.surface.Extract(ctx, req)
}

func (e *Engine) runValidate(ctx context.Context, step models.Step) (any, error) {
	req := browser.ValidateRequest{Selector: step.Target}
	if step.Validate != nil {
		req.Assertion = step.Validate.Assertion
		req.Expected = step.Validate.Expected
	}

	result, err := e.surface.Validate(ctx, req)
	if err != nil {
		return nil, err
	}

	if !result.Success {
		return nil, &StepError{StepID: step.ID, Kind: "validate", Message: validateMessage(result)}
	}

	return result, nil
}

// runGroup executes children sequentially, collecting their results in
// order. The Parallel flag is reserved and ignored; cancellation is checked
// between children.
func (e *Engine) runGroup(ctx context.Context, step models.Step, execution *models.Execution) (any, error) {
	if step.Group == nil {
		return nil, fmt.Errorf("group step %s has no payload", step.ID)
	}

	results := make([]any, 0, len(step.Group.Children))

	for _, child := range step.Group.Children {
		if e.cancelled(execution) {
			return results, ErrExecutionCancelled
		}

		result, err := e.runStep(ctx, child, execution)
		if err != nil {
			return results, fmt.Errorf("group child %s failed: %w", child.ID, err)
		}

		results = append(results, result)
	}

	return results, nil
}

func validateMessage(result browser.ValidateResult) string {
	if result.Error != "" {
		return result.Error
	}

	return "assertion failed, actual: " + result.Actual
}

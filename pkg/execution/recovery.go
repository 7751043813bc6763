package execution

import (
	"context"
	"log/slog"
	"time"

	"github.com/replaykit/replaykit/pkg/models"
)

// runStepWithRecovery dispatches the step and, on failure, applies the
// step-local recovery policy: linear backoff of RetryDelay × retryCount and
// re-invocation of the same step, bounded by RetryAttempts per execution.
// Recovery never skips ahead or rewinds prior steps.
func (e *Engine) runStepWithRecovery(ctx context.Context, step models.Step, execution *models.Execution, logger *slog.Logger) (any, error) {
	result, err := e.runStep(ctx, step, execution)

	for err != nil {
		if execution.RetryCount >= e.config.RetryAttempts {
			return nil, &RecoveryError{
				StepID:   step.ID,
				Attempts: execution.RetryCount,
				Err:      err,
			}
		}

		execution.RetryCount++
		backoff := e.config.RetryDelay * time.Duration(execution.RetryCount)

		logger.Warn("Step failed, attempting recovery",
			"step_id", step.ID,
			"attempt", execution.RetryCount,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		result, err = e.runStep(ctx, step, execution)
	}

	return result, nil
}

package recorder

import (
	"github.com/replaykit/replaykit/pkg/models"
)

// System-generated pointer churn that never represents user intent.
var noiseActions = map[string]bool{
	"mousemove":  true,
	"mouseenter": true,
	"mouseleave": true,
}

var hoverActions = map[string]bool{
	"hover":     true,
	"mouseover": true,
}

// StepFilter decides, per raw captured event, whether it becomes a recorded
// step. Malformed events are dropped, never propagated as errors: a broken
// capture must not crash an hour-long recording.
type StepFilter struct {
	settings models.RecordingSettings
}

func NewStepFilter(settings models.RecordingSettings) *StepFilter {
	return &StepFilter{settings: settings}
}

// ShouldRecord applies noise suppression and the per-kind capture toggles.
func (f *StepFilter) ShouldRecord(event models.CapturedEvent) bool {
	if event.Action == "" || event.Type == "" {
		return false
	}

	if f.settings.IgnoreSystemNoise && noiseActions[event.Action] {
		return false
	}

	if event.Action == "scroll" {
		return f.settings.CaptureScroll
	}

	if hoverActions[event.Action] {
		return f.settings.CaptureHover
	}

	switch event.Type {
	case models.StepTypeClick:
		return f.settings.CaptureClicks
	case models.StepTypeInput:
		return f.settings.CaptureTyping
	case models.StepTypeNavigation:
		return f.settings.CaptureNavigation
	case models.StepTypeWait, models.StepTypeExtract, models.StepTypeValidate, models.StepTypeGroup:
		return true
	default:
		return false
	}
}

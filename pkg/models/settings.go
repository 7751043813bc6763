package models

// RecordingSettings are the capture toggles snapshotted when a recording
// session starts.
type RecordingSettings struct {
	CaptureClicks     bool `json:"capture_clicks"`
	CaptureTyping     bool `json:"capture_typing"`
	CaptureNavigation bool `json:"capture_navigation"`
	CaptureScroll     bool `json:"capture_scroll"`
	CaptureHover      bool `json:"capture_hover"`
	IgnoreSystemNoise bool `json:"ignore_system_noise"`
	SmartGrouping     bool `json:"smart_grouping"`
	AutoOptimize      bool `json:"auto_optimize"`
}

// DefaultRecordingSettings captures clicks, typing and navigation with noise
// suppression and real-time dedup enabled.
func DefaultRecordingSettings() RecordingSettings {
	return RecordingSettings{
		CaptureClicks:     true,
		CaptureTyping:     true,
		CaptureNavigation: true,
		CaptureScroll:     false,
		CaptureHover:      false,
		IgnoreSystemNoise: true,
		SmartGrouping:     true,
		AutoOptimize:      true,
	}
}

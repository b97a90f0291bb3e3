// Package export contains the timeline export engine: it turns a timeline
// snapshot into an ordered event list, drives one encoder invocation per
// event plus a final concatenation, and reports progress and a single
// terminal outcome per export.
package export

import (
	"sync/atomic"
	"time"
)

// ExportConfig describes one export request. Explicitly set fields take
// precedence over the quality preset's defaults.
type ExportConfig struct {
	OutputPath string      `json:"output_path"`
	Quality    string      `json:"quality,omitempty"` // low|medium|high|ultra
	Resolution *Resolution `json:"resolution,omitempty"`
	FPS        int         `json:"fps,omitempty"`
	Codec      string      `json:"codec,omitempty"`
	Bitrate    string      `json:"bitrate,omitempty"`
}

type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ExportProgress is one progress sample for the whole export. Percent is
// monotonically non-decreasing per export and reaches 100 only at success.
type ExportProgress struct {
	Percent      float64 `json:"percent"`
	CurrentFrame int64   `json:"current_frame"`
	TotalFrames  int64   `json:"total_frames"`
	FPS          float64 `json:"fps"`
	ETASeconds   float64 `json:"eta_seconds"`
}

// EventType discriminates the export event stream. Exactly one terminal
// event (completed, failed or cancelled) ends every stream.
type EventType string

const (
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventCancelled EventType = "cancelled"
)

// Event is one entry in an export's event stream.
type Event struct {
	Type       EventType       `json:"type"`
	Progress   *ExportProgress `json:"progress,omitempty"`
	OutputPath string          `json:"output_path,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type != EventProgress
}

// Export status values as persisted in the history store.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// ActiveExport tracks one in-flight export so cancellation can reach it.
type ActiveExport struct {
	ID        string
	Config    ExportConfig
	StartTime time.Time

	cancel    func()
	cancelled atomic.Bool
}

// Cancelled reports whether Cancel was requested for this export.
func (a *ActiveExport) Cancelled() bool {
	return a.cancelled.Load()
}

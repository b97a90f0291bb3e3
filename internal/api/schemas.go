package api

import (
	"time"

	"github.com/clipforge/clipforge-agent/internal/export"
	"github.com/clipforge/clipforge-agent/internal/store"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State         string `json:"state"`
	ActiveExports int    `json:"active_exports"`
	LastError     string `json:"last_error,omitempty"`
	EncoderReady  bool   `json:"encoder_ready"`
}

type StartExportRequest struct {
	Timeline timeline.Timeline   `json:"timeline"`
	Config   export.ExportConfig `json:"config"`
}

type StartExportResponse struct {
	ExportID string `json:"export_id"`
}

type ExportResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	OutputPath string `json:"output_path"`
	Progress   int    `json:"progress"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type ExportsResponse struct {
	Exports []ExportResponse `json:"exports"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ExportToResponse(e *store.Export) ExportResponse {
	return ExportResponse{
		ID:         e.ID,
		Status:     e.Status,
		OutputPath: e.OutputPath,
		Progress:   e.Progress,
		Error:      e.Error,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  e.UpdatedAt.Format(time.RFC3339),
	}
}

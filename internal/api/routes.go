package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clipforge/clipforge-agent/internal/config"
	"github.com/clipforge/clipforge-agent/internal/export"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Store, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Post("/exports", startExportHandler(cfg))
		r.Get("/exports", listExportsHandler(cfg))
		r.Get("/exports/{id}", getExportHandler(cfg))
		r.Post("/exports/{id}/cancel", cancelExportHandler(cfg))
		r.Get("/exports/{id}/file", downloadExportHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  config.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{State: "idle", EncoderReady: cfg.Engine != nil}

		if cfg.Engine != nil {
			resp.ActiveExports = cfg.Engine.ActiveCount()
			if resp.ActiveExports > 0 {
				resp.State = "exporting"
			}
		}

		exports, err := cfg.Store.ListExports(r.Context(), 10)
		if err == nil {
			for _, e := range exports {
				if e.Status == export.StatusFailed {
					resp.LastError = e.Error
					break
				}
			}
		}
		if resp.LastError != "" && resp.State == "idle" {
			resp.State = "error"
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func startExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Engine == nil {
			WriteError(w, http.StatusServiceUnavailable, "no encoder available on this machine", "ENCODER_UNAVAILABLE")
			return
		}

		var req StartExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if req.Config.OutputPath == "" {
			WriteError(w, http.StatusBadRequest, "config.output_path is required", "BAD_REQUEST")
			return
		}

		id, events, err := cfg.Engine.Start(req.Timeline, req.Config)
		if err != nil {
			if errors.Is(err, export.ErrEncoderUnavailable) {
				WriteError(w, http.StatusServiceUnavailable, err.Error(), "ENCODER_UNAVAILABLE")
				return
			}
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		// The engine persists progress itself; this consumer keeps the
		// stream drained and surfaces the terminal outcome in the log.
		go func() {
			for ev := range events {
				if ev.Terminal() {
					cfg.Logger.Info("export reached terminal state",
						"export_id", id,
						"status", string(ev.Type),
						"error", ev.Error,
					)
				}
			}
		}()

		WriteJSON(w, http.StatusAccepted, StartExportResponse{ExportID: id})
	}
}

func listExportsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exports, err := cfg.Store.ListExports(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list exports", "INTERNAL_ERROR")
			return
		}

		resp := ExportsResponse{Exports: make([]ExportResponse, len(exports))}
		for i, e := range exports {
			resp.Exports[i] = ExportToResponse(e)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "export id required", "BAD_REQUEST")
			return
		}

		e, err := cfg.Store.GetExport(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if e == nil {
			WriteError(w, http.StatusNotFound, "export not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, ExportToResponse(e))
	}
}

func cancelExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "export id required", "BAD_REQUEST")
			return
		}

		// Cancelling an unknown or already-finished export is a no-op.
		if cfg.Engine != nil {
			cfg.Engine.Cancel(id)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func downloadExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "export id required", "BAD_REQUEST")
			return
		}

		e, err := cfg.Store.GetExport(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if e == nil {
			WriteError(w, http.StatusNotFound, "export not found", "NOT_FOUND")
			return
		}
		if e.Status != export.StatusCompleted {
			WriteError(w, http.StatusConflict, "export is not completed", "NOT_COMPLETED")
			return
		}

		if err := cfg.Delivery.ServeDownload(w, r, e.OutputPath); err != nil {
			cfg.Logger.Error("download error", "error", err, "export_id", id)
		}
	}
}

package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/clipforge/clipforge-agent/internal/export"
	"github.com/clipforge/clipforge-agent/internal/store"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

// Engine is the export engine surface the API depends on; the production
// implementation is *export.Engine.
type Engine interface {
	Start(tl timeline.Timeline, cfg export.ExportConfig) (string, <-chan export.Event, error)
	Cancel(id string)
	ActiveCount() int
}

// Store is the persistence surface the API depends on; the production
// implementation is *store.Store.
type Store interface {
	GetExport(ctx context.Context, id string) (*store.Export, error)
	ListExports(ctx context.Context, limit int) ([]*store.Export, error)
	GetConfig(ctx context.Context, key string) (string, error)
}

// Downloader serves a finished export file over HTTP; the production
// implementation is *delivery.Server.
type Downloader interface {
	ServeDownload(w http.ResponseWriter, r *http.Request, path string) error
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port      int
	Engine    Engine // nil when no encoder binary was found
	Store     Store
	Delivery  Downloader
	Logger    *slog.Logger
	StartTime time.Time
	DeviceID  string
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

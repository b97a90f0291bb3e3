package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/clipforge/clipforge-agent/internal/encoder"
	"github.com/clipforge/clipforge-agent/internal/logging"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

// Rendering is allotted 80% of the global progress bar, the final
// concatenation the remaining 20%.
const (
	renderShare = 0.8
	concatShare = 0.2

	eventBuffer = 64
)

// ErrEncoderUnavailable is returned by Start when no encoder binary was
// found at agent startup.
var ErrEncoderUnavailable = errors.New("encoder unavailable")

// HistoryStore persists export lifecycle transitions. Implementations must
// tolerate being called from multiple export goroutines.
type HistoryStore interface {
	CreateExport(ctx context.Context, id, outputPath string) error
	UpdateExportStatus(ctx context.Context, id, status, errMsg string) error
	UpdateExportProgress(ctx context.Context, id string, percent int) error
}

// EngineConfig holds the engine's collaborators. Registry and Runner are
// required; Store is optional.
type EngineConfig struct {
	Runner   encoder.Runner
	Registry *Registry
	Store    HistoryStore
	WorkDir  string // base directory for per-export temp workspaces
	Logger   *slog.Logger
}

// Engine runs exports. Each export is one goroutine driving a strictly
// sequential chain of encoder invocations; distinct exports may run
// concurrently and share nothing but the registry.
type Engine struct {
	runner   encoder.Runner
	registry *Registry
	store    HistoryStore
	workDir  string
	logger   *slog.Logger
}

func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{
		runner:   cfg.Runner,
		registry: cfg.Registry,
		store:    cfg.Store,
		workDir:  cfg.WorkDir,
		logger:   cfg.Logger,
	}
}

// Start begins an export and returns its ID together with the export's
// event stream. The stream carries progress events in non-decreasing
// percent order followed by exactly one terminal event, after which it is
// closed. The timeline snapshot is never mutated.
func (e *Engine) Start(tl timeline.Timeline, cfg ExportConfig) (string, <-chan Event, error) {
	if e.runner == nil {
		return "", nil, ErrEncoderUnavailable
	}
	if cfg.OutputPath == "" {
		return "", nil, fmt.Errorf("output_path is required")
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	ae := &ActiveExport{
		ID:        id,
		Config:    cfg,
		StartTime: time.Now(),
		cancel:    cancel,
	}
	if err := e.registry.Add(ae); err != nil {
		cancel()
		return "", nil, err
	}

	if e.store != nil {
		if err := e.store.CreateExport(context.Background(), id, cfg.OutputPath); err != nil {
			e.logger.Warn("cannot record export start", "export_id", id, "error", err)
		}
	}

	events := make(chan Event, eventBuffer)
	go e.run(ctx, ae, tl, cfg, events)

	return id, events, nil
}

// Cancel requests cancellation of an in-flight export. The current encoder
// process receives a graceful terminate and is force-killed after the
// runner's grace period. Cancelling an unknown or already-terminal export
// is a no-op.
func (e *Engine) Cancel(id string) {
	ae := e.registry.Get(id)
	if ae == nil {
		return
	}
	ae.cancelled.Store(true)
	ae.cancel()
	e.logger.Info("export cancellation requested", "export_id", id)
}

// CancelAll cancels every in-flight export.
func (e *Engine) CancelAll() {
	for _, id := range e.registry.IDs() {
		e.Cancel(id)
	}
}

// ActiveCount returns the number of in-flight exports.
func (e *Engine) ActiveCount() int {
	return e.registry.Count()
}

func (e *Engine) run(ctx context.Context, ae *ActiveExport, tl timeline.Timeline, cfg ExportConfig, events chan Event) {
	defer close(events)

	logger := logging.WithExportID(e.logger, ae.ID)
	prof := ResolveProfile(cfg)

	evs := timeline.BuildEvents(tl.Clips())
	if len(evs) == 0 {
		e.finish(ae, events, logger, "", Event{Type: EventFailed, Error: "no events to export"})
		return
	}

	workspace := filepath.Join(e.workDir, "export-"+ae.ID)
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		e.finish(ae, events, logger, "", Event{
			Type:  EventFailed,
			Error: fmt.Sprintf("cannot create temp workspace: %v", err),
		})
		return
	}

	logger.Info("export started",
		"events", len(evs),
		"output", logging.SanitizePath(cfg.OutputPath),
		"profile", fmt.Sprintf("%dx%d@%d %s", prof.Width, prof.Height, prof.FPS, prof.VideoBitrate),
	)

	totalDur := evs[len(evs)-1].EndTime
	totalFrames := int64(totalDur * float64(prof.FPS))
	tracker := &progressTracker{
		engine:      e,
		exportID:    ae.ID,
		events:      events,
		totalFrames: totalFrames,
		lastStored:  -1,
	}

	n := len(evs)
	segments := make([]string, 0, n)
	for i, ev := range evs {
		if ctx.Err() != nil {
			e.finish(ae, events, logger, workspace, Event{Type: EventCancelled})
			return
		}

		segPath := filepath.Join(workspace, fmt.Sprintf("segment_%03d.mp4", i))

		var inv encoder.Invocation
		switch ev.Kind {
		case timeline.EventGap:
			inv = encoder.Invocation{Op: "gap", Args: encoder.GapArgs(ev, segPath, prof)}
		default:
			inv = encoder.Invocation{Op: "segment", Args: encoder.ClipArgs(ev, segPath, prof)}
		}
		inv.Duration = ev.Duration()

		segIndex := i
		segDur := ev.Duration()
		inv.OnProgress = func(p encoder.Progress) {
			local := 0.0
			if segDur > 0 {
				local = p.Elapsed / segDur
			}
			if local > 1 {
				local = 1
			}
			frac := (float64(segIndex) + local) / float64(n) * renderShare
			tracker.emit(frac, p.FPS)
		}

		if err := e.runner.Run(ctx, inv); err != nil {
			if ctx.Err() != nil {
				e.finish(ae, events, logger, workspace, Event{Type: EventCancelled})
			} else {
				e.finish(ae, events, logger, workspace, Event{Type: EventFailed, Error: err.Error()})
			}
			return
		}

		segments = append(segments, segPath)
		tracker.emit(float64(i+1)/float64(n)*renderShare, 0)
	}

	if ctx.Err() != nil {
		e.finish(ae, events, logger, workspace, Event{Type: EventCancelled})
		return
	}

	manifest := filepath.Join(workspace, "concat.txt")
	if err := encoder.WriteConcatManifest(manifest, segments); err != nil {
		e.finish(ae, events, logger, workspace, Event{Type: EventFailed, Error: err.Error()})
		return
	}

	if dir := filepath.Dir(cfg.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			e.finish(ae, events, logger, workspace, Event{
				Type:  EventFailed,
				Error: fmt.Sprintf("cannot create output directory: %v", err),
			})
			return
		}
	}

	concatInv := encoder.Invocation{
		Op:       "concat",
		Args:     encoder.ConcatArgs(manifest, cfg.OutputPath, prof),
		Duration: totalDur,
		OnProgress: func(p encoder.Progress) {
			local := 0.0
			if totalDur > 0 {
				local = p.Elapsed / totalDur
			}
			if local > 1 {
				local = 1
			}
			tracker.emit(renderShare+local*concatShare, p.FPS)
		},
	}

	if err := e.runner.Run(ctx, concatInv); err != nil {
		if ctx.Err() != nil {
			e.finish(ae, events, logger, workspace, Event{Type: EventCancelled})
		} else {
			e.finish(ae, events, logger, workspace, Event{Type: EventFailed, Error: err.Error()})
		}
		return
	}

	tracker.emit(1.0, 0)
	e.finish(ae, events, logger, workspace, Event{Type: EventCompleted, OutputPath: cfg.OutputPath})
}

// finish performs the single terminal transition for one export: temp
// workspace removal, partial-output removal on non-success, history
// update, registry removal and the terminal event, strictly in that order
// so the cleanup invariant already holds when the terminal event is
// observed. Cleanup failures are logged, never escalated.
func (e *Engine) finish(ae *ActiveExport, events chan Event, logger *slog.Logger, workspace string, terminal Event) {
	if workspace != "" {
		if err := os.RemoveAll(workspace); err != nil {
			logger.Warn("cannot remove temp workspace", "workspace", workspace, "error", err)
		}
	}

	if terminal.Type != EventCompleted {
		if err := os.Remove(ae.Config.OutputPath); err != nil && !os.IsNotExist(err) {
			logger.Warn("cannot remove partial output file", "error", err)
		}
	}

	if e.store != nil {
		status := StatusFailed
		switch terminal.Type {
		case EventCompleted:
			status = StatusCompleted
		case EventCancelled:
			status = StatusCancelled
		}
		if err := e.store.UpdateExportStatus(context.Background(), ae.ID, status, terminal.Error); err != nil {
			logger.Warn("cannot record export outcome", "error", err)
		}
	}

	e.registry.Remove(ae.ID)
	publish(events, terminal)

	logger.Info("export finished",
		"status", string(terminal.Type),
		"duration_ms", time.Since(ae.StartTime).Milliseconds(),
		"error", terminal.Error,
	)
}

// progressTracker clamps emitted percentages to be monotonically
// non-decreasing and mirrors whole-percent changes into the history store.
type progressTracker struct {
	engine      *Engine
	exportID    string
	events      chan Event
	totalFrames int64
	lastPercent float64
	lastStored  int
}

func (t *progressTracker) emit(frac, fps float64) {
	percent := frac * 100
	if percent > 100 {
		percent = 100
	}
	if percent < t.lastPercent {
		percent = t.lastPercent
	}
	t.lastPercent = percent

	current := int64(percent / 100 * float64(t.totalFrames))
	var eta float64
	if fps > 0 && current < t.totalFrames {
		eta = float64(t.totalFrames-current) / fps
	}

	publish(t.events, Event{Type: EventProgress, Progress: &ExportProgress{
		Percent:      percent,
		CurrentFrame: current,
		TotalFrames:  t.totalFrames,
		FPS:          fps,
		ETASeconds:   eta,
	}})

	if t.engine.store != nil {
		if p := int(percent); p != t.lastStored {
			t.lastStored = p
			if err := t.engine.store.UpdateExportProgress(context.Background(), t.exportID, p); err != nil {
				t.engine.logger.Warn("cannot record export progress", "export_id", t.exportID, "error", err)
			}
		}
	}
}

// publish sends without ever blocking the export goroutine: when the
// buffer is full the oldest pending event is dropped. Consumers tolerate
// missing intermediate progress samples; the terminal event always lands
// because only the producer writes to the channel.
func publish(events chan Event, ev Event) {
	for {
		select {
		case events <- ev:
			return
		default:
			select {
			case <-events:
			default:
			}
		}
	}
}

package ui

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getlantern/systray"
)

// ExportController is the engine surface the tray menu needs.
type ExportController interface {
	ActiveCount() int
	CancelAll()
}

type Tray struct {
	engine ExportController
	logger *slog.Logger

	statusItem *systray.MenuItem
	cancelItem *systray.MenuItem

	mu sync.Mutex

	onQuit func()
}

type TrayConfig struct {
	Engine ExportController // nil when no encoder binary was found
	Logger *slog.Logger
	OnQuit func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		engine: cfg.Engine,
		logger: cfg.Logger,
		onQuit: cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("ClipForge")
	systray.SetTooltip("ClipForge Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	systray.AddSeparator()

	t.cancelItem = systray.AddMenuItem("Cancel All Exports", "Stop every running export")
	t.cancelItem.Disable()

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit ClipForge Agent")

	go func() {
		for {
			select {
			case <-t.cancelItem.ClickedCh:
				t.handleCancelAll()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	go t.pollStatus()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

// pollStatus keeps the status line in sync with the engine. Polling is
// simpler than threading event channels through the tray and a one second
// lag is invisible in a menu.
func (t *Tray) pollStatus() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if t.engine == nil {
			t.setStatus("No encoder found", false)
			continue
		}
		if n := t.engine.ActiveCount(); n > 0 {
			t.setStatus(fmt.Sprintf("Exporting (%d)", n), true)
		} else {
			t.setStatus("Idle", false)
		}
	}
}

func (t *Tray) setStatus(status string, cancellable bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.statusItem.SetTitle("Status: " + status)
	if cancellable {
		t.cancelItem.Enable()
	} else {
		t.cancelItem.Disable()
	}
}

func (t *Tray) handleCancelAll() {
	if t.engine == nil {
		return
	}
	t.logger.Info("cancel all exports requested from tray")
	t.engine.CancelAll()
}

func (t *Tray) Quit() {
	systray.Quit()
}

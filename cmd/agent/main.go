package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipforge/clipforge-agent/internal/api"
	"github.com/clipforge/clipforge-agent/internal/config"
	"github.com/clipforge/clipforge-agent/internal/delivery"
	"github.com/clipforge/clipforge-agent/internal/encoder"
	"github.com/clipforge/clipforge-agent/internal/export"
	"github.com/clipforge/clipforge-agent/internal/logging"
	"github.com/clipforge/clipforge-agent/internal/store"
	"github.com/clipforge/clipforge-agent/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.WorkDir(), 0755); err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting clipforge agent", "version", config.Version, "data_dir", cfg.DataDir())

	st, err := store.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	deviceID, err := ensureDeviceID(st)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(st)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                  CLIPFORGE AGENT v%-6s                  ║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	// A missing encoder binary is not fatal: the agent still serves export
	// history and downloads, it just refuses new exports.
	var engine *export.Engine
	runner, err := encoder.NewRunner(encoder.Config{
		FFmpegPath:  cfg.FFmpegPath(),
		GracePeriod: cfg.CancelGracePeriod(),
		Logger:      logger,
	})
	if err != nil {
		logger.Warn("encoder unavailable, exports disabled", "error", err)
	} else {
		engine = export.NewEngine(export.EngineConfig{
			Runner:   runner,
			Registry: export.NewRegistry(),
			Store:    st,
			WorkDir:  cfg.WorkDir(),
			Logger:   logger,
		})
	}

	serverCfg := api.ServerConfig{
		Port:      cfg.Port(),
		Store:     st,
		Delivery:  delivery.NewServer(logger),
		Logger:    logger,
		StartTime: startTime,
		DeviceID:  deviceID,
	}
	if engine != nil {
		serverCfg.Engine = engine
	}
	apiServer := api.NewServer(serverCfg)

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		trayCfg := ui.TrayConfig{
			Logger: logger,
			OnQuit: func() {
				close(quitCh)
			},
		}
		if engine != nil {
			trayCfg.Engine = engine
		}
		tray := ui.NewTray(trayCfg)
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")

	if engine != nil {
		engine.CancelAll()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureDeviceID(st *store.Store) (string, error) {
	ctx := context.Background()

	existing, err := st.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	deviceID := hex.EncodeToString(idBytes)

	if err := st.SetConfig(ctx, "device_id", deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(st *store.Store) (string, error) {
	ctx := context.Background()

	existing, err := st.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := st.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}

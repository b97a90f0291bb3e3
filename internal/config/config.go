// Package config provides configuration management for the ClipForge Agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort     = 8797
	DefaultLogLevel = "info"
	DefaultDataDir  = ".clipforge"

	// Environment variable names
	EnvPort     = "CLIPFORGE_PORT"
	EnvLogLevel = "CLIPFORGE_LOG_LEVEL"
	EnvDataDir  = "CLIPFORGE_DATA_DIR"
	EnvHeadless = "CLIPFORGE_HEADLESS"

	// Encoder environment variable names
	EnvFFmpegPath  = "CLIPFORGE_FFMPEG"
	EnvGraceperiod = "CLIPFORGE_CANCEL_GRACE_SECONDS"

	// Database filename
	DBFilename = "clipforge.db"

	// Encoder defaults
	DefaultCancelGraceSeconds = 5
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	WorkDir() string
	Headless() bool
	FFmpegPath() string
	CancelGracePeriod() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port              int
	logLevel          string
	dataDir           string
	headless          bool
	ffmpegPath        string
	cancelGraceSecond int
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:              DefaultPort,
		logLevel:          DefaultLogLevel,
		dataDir:           defaultDataDir(),
		cancelGraceSecond: DefaultCancelGraceSeconds,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	// Override data directory from environment
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if h := os.Getenv(EnvHeadless); h == "1" || h == "true" {
		cfg.headless = true
	}

	cfg.ffmpegPath = os.Getenv(EnvFFmpegPath)

	if g := os.Getenv(EnvGraceperiod); g != "" {
		secs, err := strconv.Atoi(g)
		if err != nil || secs < 0 {
			return nil, fmt.Errorf("invalid %s: must be a non-negative integer", EnvGraceperiod)
		}
		cfg.cancelGraceSecond = secs
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// WorkDir returns the directory that holds per-export temp workspaces
func (c *EnvConfig) WorkDir() string {
	return filepath.Join(c.dataDir, "work")
}

// Headless reports whether the agent should run without a system tray
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// FFmpegPath returns the configured ffmpeg binary path; empty = auto-detect
func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

// CancelGracePeriod returns how long a cancelled encoder process is given
// to exit gracefully before it is force-killed.
func (c *EnvConfig) CancelGracePeriod() time.Duration {
	return time.Duration(c.cancelGraceSecond) * time.Second
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

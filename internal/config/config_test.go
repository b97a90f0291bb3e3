package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPort_Default(t *testing.T) {
	os.Unsetenv(EnvPort)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("default Port = %d, want %d", cfg.Port(), DefaultPort)
	}
}

func TestPort_FromEnv(t *testing.T) {
	os.Setenv(EnvPort, "9123")
	defer os.Unsetenv(EnvPort)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9123 {
		t.Errorf("Port = %d, want 9123", cfg.Port())
	}
}

func TestPort_Invalid(t *testing.T) {
	cases := []string{"not-a-number", "0", "70000", "-1"}
	for _, v := range cases {
		os.Setenv(EnvPort, v)
		if _, err := New(); err == nil {
			t.Errorf("New() with %s=%q succeeded, want error", EnvPort, v)
		}
	}
	os.Unsetenv(EnvPort)
}

func TestDataDir_FromEnv(t *testing.T) {
	os.Setenv(EnvDataDir, "/tmp/clipforge-test")
	defer os.Unsetenv(EnvDataDir)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataDir() != "/tmp/clipforge-test" {
		t.Errorf("DataDir = %q, want /tmp/clipforge-test", cfg.DataDir())
	}
	if cfg.DBPath() != filepath.Join("/tmp/clipforge-test", DBFilename) {
		t.Errorf("DBPath = %q", cfg.DBPath())
	}
	if cfg.WorkDir() != filepath.Join("/tmp/clipforge-test", "work") {
		t.Errorf("WorkDir = %q", cfg.WorkDir())
	}
}

func TestHeadless_FromEnv(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"0", false},
		{"1", true},
		{"true", true},
		{"yes", false},
	}

	for _, tc := range cases {
		if tc.value == "" {
			os.Unsetenv(EnvHeadless)
		} else {
			os.Setenv(EnvHeadless, tc.value)
		}
		cfg, err := New()
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tc.value, err)
		}
		if cfg.Headless() != tc.want {
			t.Errorf("Headless with %s=%q = %v, want %v", EnvHeadless, tc.value, cfg.Headless(), tc.want)
		}
	}
	os.Unsetenv(EnvHeadless)
}

func TestCancelGracePeriod_Default(t *testing.T) {
	os.Unsetenv(EnvGraceperiod)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CancelGracePeriod() != DefaultCancelGraceSeconds*time.Second {
		t.Errorf("default CancelGracePeriod = %v", cfg.CancelGracePeriod())
	}
}

func TestCancelGracePeriod_FromEnv(t *testing.T) {
	os.Setenv(EnvGraceperiod, "12")
	defer os.Unsetenv(EnvGraceperiod)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CancelGracePeriod() != 12*time.Second {
		t.Errorf("CancelGracePeriod = %v, want 12s", cfg.CancelGracePeriod())
	}
}

func TestCancelGracePeriod_Invalid(t *testing.T) {
	os.Setenv(EnvGraceperiod, "-3")
	defer os.Unsetenv(EnvGraceperiod)

	if _, err := New(); err == nil {
		t.Error("New() with negative grace period succeeded, want error")
	}
}

func TestFFmpegPath_FromEnv(t *testing.T) {
	os.Setenv(EnvFFmpegPath, "/opt/ffmpeg/bin/ffmpeg")
	defer os.Unsetenv(EnvFFmpegPath)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FFmpegPath() != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("FFmpegPath = %q", cfg.FFmpegPath())
	}
}

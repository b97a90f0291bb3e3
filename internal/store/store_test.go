package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestExportLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateExport(ctx, "e1", "/out/final.mp4"); err != nil {
		t.Fatalf("CreateExport() error = %v", err)
	}

	e, err := s.GetExport(ctx, "e1")
	if err != nil {
		t.Fatalf("GetExport() error = %v", err)
	}
	if e == nil {
		t.Fatal("GetExport() = nil for created export")
	}
	if e.Status != "running" || e.Progress != 0 {
		t.Fatalf("fresh export = %+v, want running at 0%%", e)
	}
	if e.OutputPath != "/out/final.mp4" {
		t.Errorf("output path = %q, want /out/final.mp4", e.OutputPath)
	}

	if err := s.UpdateExportProgress(ctx, "e1", 42); err != nil {
		t.Fatalf("UpdateExportProgress() error = %v", err)
	}
	if err := s.UpdateExportStatus(ctx, "e1", "completed", ""); err != nil {
		t.Fatalf("UpdateExportStatus() error = %v", err)
	}

	e, err = s.GetExport(ctx, "e1")
	if err != nil {
		t.Fatalf("GetExport() error = %v", err)
	}
	if e.Status != "completed" || e.Progress != 42 {
		t.Fatalf("export after updates = %+v, want completed at 42%%", e)
	}
	if e.Error != "" {
		t.Errorf("error = %q, want empty", e.Error)
	}
}

func TestGetExport_Unknown(t *testing.T) {
	s := testStore(t)

	e, err := s.GetExport(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetExport() error = %v", err)
	}
	if e != nil {
		t.Fatalf("GetExport(missing) = %+v, want nil", e)
	}
}

func TestListExports(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, id := range []string{"e1", "e2", "e3"} {
		if err := s.CreateExport(ctx, id, "/out/"+id+".mp4"); err != nil {
			t.Fatalf("CreateExport(%s) error = %v", id, err)
		}
	}

	exports, err := s.ListExports(ctx, 2)
	if err != nil {
		t.Fatalf("ListExports() error = %v", err)
	}
	if len(exports) != 2 {
		t.Fatalf("ListExports(limit=2) returned %d records", len(exports))
	}
}

func TestMarkInterruptedExports(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := New(dbPath, logger)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.CreateExport(ctx, "orphan", "/out/x.mp4"); err != nil {
		t.Fatalf("CreateExport() error = %v", err)
	}
	s.Close()

	// Reopening simulates an agent restart.
	s, err = New(dbPath, logger)
	if err != nil {
		t.Fatalf("New() reopen error = %v", err)
	}
	defer s.Close()

	e, err := s.GetExport(ctx, "orphan")
	if err != nil {
		t.Fatalf("GetExport() error = %v", err)
	}
	if e.Status != "failed" {
		t.Fatalf("orphaned export status = %q, want failed", e.Status)
	}
	if e.Error != "interrupted by restart" {
		t.Errorf("orphaned export error = %q, want interruption message", e.Error)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	v, err := s.GetConfig(ctx, "auth_token")
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if v != "" {
		t.Fatalf("GetConfig(unset) = %q, want empty", v)
	}

	if err := s.SetConfig(ctx, "auth_token", "secret"); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}
	if err := s.SetConfig(ctx, "auth_token", "rotated"); err != nil {
		t.Fatalf("SetConfig() upsert error = %v", err)
	}

	v, err = s.GetConfig(ctx, "auth_token")
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if v != "rotated" {
		t.Fatalf("GetConfig() = %q, want rotated", v)
	}
}

// Package store persists export history and agent configuration in a
// local SQLite database.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Export is one export's history record.
type Export struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	OutputPath string    `json:"output_path"`
	Progress   int       `json:"progress"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Store struct {
	conn   *sql.DB
	logger *slog.Logger
}

func New(dbPath string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	s := &Store{conn: conn, logger: logger}

	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := s.markInterruptedExports(); err != nil && logger != nil {
		logger.Warn("failed to mark interrupted exports", "error", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}

		name := m.Name()

		if s.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		if _, err := s.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}

		if _, err := s.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}

		if s.logger != nil {
			s.logger.Info("applied migration", "name", name)
		}
	}

	return nil
}

func (s *Store) isMigrationApplied(name string) bool {
	var exists int
	err := s.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists)
	if err != nil {
		return false
	}

	var applied int
	err = s.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// markInterruptedExports fails any export still marked running from a
// previous agent process; its goroutine died with that process.
func (s *Store) markInterruptedExports() error {
	_, err := s.conn.ExecContext(context.Background(),
		`UPDATE exports SET status = 'failed', error = 'interrupted by restart', updated_at = datetime('now') WHERE status = 'running'`)
	return err
}

// CreateExport inserts a new running export record.
func (s *Store) CreateExport(ctx context.Context, id, outputPath string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO exports (id, status, output_path, progress, created_at, updated_at)
		VALUES (?, 'running', ?, 0, ?, ?)
	`, id, outputPath, now, now)
	return err
}

// UpdateExportStatus records a terminal (or corrected) status.
func (s *Store) UpdateExportStatus(ctx context.Context, id, status, errMsg string) error {
	_, err := s.conn.ExecContext(ctx, `
		UPDATE exports SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, status, nullString(errMsg), time.Now().UTC().Format(time.RFC3339), id)
	return err
}

// UpdateExportProgress records the current whole-percent progress.
func (s *Store) UpdateExportProgress(ctx context.Context, id string, percent int) error {
	_, err := s.conn.ExecContext(ctx, `
		UPDATE exports SET progress = ?, updated_at = ? WHERE id = ?
	`, percent, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

// GetExport returns one export record, or nil when the ID is unknown.
func (s *Store) GetExport(ctx context.Context, id string) (*Export, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, status, output_path, progress, error, created_at, updated_at
		FROM exports WHERE id = ?
	`, id)
	return scanExport(row)
}

// ListExports returns the most recent export records, newest first.
func (s *Store) ListExports(ctx context.Context, limit int) ([]*Export, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, status, output_path, progress, error, created_at, updated_at
		FROM exports ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exports []*Export
	for rows.Next() {
		var e Export
		var errMsg sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&e.ID, &e.Status, &e.OutputPath, &e.Progress, &errMsg, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		e.Error = errMsg.String
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		exports = append(exports, &e)
	}
	return exports, rows.Err()
}

func scanExport(row *sql.Row) (*Export, error) {
	var e Export
	var errMsg sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&e.ID, &e.Status, &e.OutputPath, &e.Progress, &errMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.Error = errMsg.String
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &e, nil
}

// GetConfig returns a config value, or empty string when the key is unset.
func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetConfig upserts a config value.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

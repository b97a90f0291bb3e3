// Package encoder runs the external video encoder (ffmpeg) as a child
// process per invocation, streaming its stderr through the progress parser
// and keeping a bounded diagnostic tail for failures.
package encoder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

const (
	maxStderrBytes = 8 * 1024 // 8 KB tail of stderr kept for diagnostics
	readChunkBytes = 4096
)

// Invocation describes one encoder run. Duration is the expected output
// duration in seconds, used by callers to turn parsed samples into
// fractions. OnProgress, when set, receives every parsed sample in order.
type Invocation struct {
	Op         string // "segment", "gap" or "concat"
	Args       []string
	Duration   float64
	OnProgress func(Progress)
}

// Runner executes encoder invocations. It is the single implementation of
// the encoding contract used throughout the agent; the export engine is
// tested against fakes of this interface.
type Runner interface {
	Run(ctx context.Context, inv Invocation) error
}

// Config holds the runner's configuration.
type Config struct {
	FFmpegPath  string        // path to ffmpeg binary; empty = auto-detect
	GracePeriod time.Duration // graceful-terminate window before forced kill
	Logger      *slog.Logger
}

// FFmpegRunner is the production implementation of Runner.
type FFmpegRunner struct {
	cfg    Config
	ffmpeg string // resolved binary path
}

// NewRunner creates an FFmpegRunner, resolving the encoder binary path.
func NewRunner(cfg Config) (*FFmpegRunner, error) {
	ffmpeg, err := resolveFFmpeg(cfg.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("cannot locate encoder: %w", err)
	}

	cfg.Logger.Info("encoder runner initialised",
		"ffmpeg", ffmpeg,
		"grace_period", cfg.GracePeriod,
	)

	return &FFmpegRunner{cfg: cfg, ffmpeg: ffmpeg}, nil
}

// Run starts one encoder process and blocks until it exits. Context
// cancellation sends an interrupt first; if the process has not exited
// after the grace period it is killed. A cancelled run returns the
// context's error, any other failure an *EncodeError.
func (r *FFmpegRunner) Run(ctx context.Context, inv Invocation) error {
	start := time.Now()

	cmd := exec.CommandContext(ctx, r.ffmpeg, inv.Args...)
	cmd.Stdout = io.Discard
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = r.cfg.GracePeriod

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &EncodeError{Op: inv.Op, SpawnFailed: true, Err: err}
	}

	r.cfg.Logger.Debug("executing encoder command", "op", inv.Op, "args", inv.Args)

	if err := cmd.Start(); err != nil {
		return &EncodeError{Op: inv.Op, SpawnFailed: true, Err: err}
	}

	tail := r.consumeStderr(stderr, inv)

	err = cmd.Wait()
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		r.cfg.Logger.Info("encoder invocation cancelled",
			"op", inv.Op, "duration_ms", elapsed.Milliseconds())
		return ctx.Err()
	}

	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		r.cfg.Logger.Warn("encoder invocation failed",
			"op", inv.Op,
			"exit_code", exitCode,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", truncate(tail, 512),
		)
		return &EncodeError{Op: inv.Op, ExitCode: exitCode, DiagnosticTail: truncate(tail, 512), Err: err}
	}

	r.cfg.Logger.Info("encoder invocation succeeded",
		"op", inv.Op, "duration_ms", elapsed.Milliseconds())
	return nil
}

// consumeStderr drains the encoder's stderr until EOF, feeding each chunk
// to the progress parser and keeping a bounded tail for diagnostics.
func (r *FFmpegRunner) consumeStderr(stderr io.Reader, inv Invocation) string {
	tail := &tailWriter{limit: maxStderrBytes}
	parseBuf := ""
	buf := make([]byte, readChunkBytes)

	for {
		n, err := stderr.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			tail.Write(buf[:n])

			var sample *Progress
			sample, parseBuf = ParseChunk(chunk, parseBuf)
			if sample != nil && inv.OnProgress != nil {
				inv.OnProgress(*sample)
			}
		}
		if err != nil {
			return tail.String()
		}
	}
}

// resolveFFmpeg finds a usable encoder binary.
func resolveFFmpeg(preferred string) (string, error) {
	if preferred != "" {
		if p, err := exec.LookPath(preferred); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("configured ffmpeg %q not found", preferred)
	}
	if p, err := exec.LookPath("ffmpeg"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("no ffmpeg binary found on PATH")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// tailWriter keeps only the last `limit` bytes written.
type tailWriter struct {
	buf   bytes.Buffer
	limit int
}

func (tw *tailWriter) Write(p []byte) (int, error) {
	n := len(p)
	tw.buf.Write(p)
	if tw.buf.Len() > tw.limit {
		// Keep only the tail
		b := tw.buf.Bytes()
		trimmed := make([]byte, tw.limit)
		copy(trimmed, b[len(b)-tw.limit:])
		tw.buf.Reset()
		tw.buf.Write(trimmed)
	}
	return n, nil
}

func (tw *tailWriter) String() string {
	return tw.buf.String()
}

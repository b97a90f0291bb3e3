package encoder

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/clipforge/clipforge-agent/internal/timeline"
)

// Profile is the output encoding profile shared by every invocation of one
// export. Segments and the final concat are all encoded with the same
// profile so the concat step never has to reconcile stream parameters.
type Profile struct {
	Width        int
	Height       int
	FPS          int
	VideoCodec   string
	VideoBitrate string // e.g. "8000k"
}

// Audio is always re-encoded to a fixed profile; pass-through audio from
// mismatched sources breaks concatenation.
const (
	audioCodec      = "aac"
	audioBitrate    = "192k"
	audioSampleRate = "44100"
)

// ClipArgs builds the encoder arguments that render one clip event: seek to
// the trim-in point, take the trimmed duration, scale and re-encode.
func ClipArgs(ev timeline.Event, outFile string, p Profile) []string {
	return []string{
		"-y", "-hide_banner",
		"-ss", formatSeconds(ev.TrimIn),
		"-i", ev.SourceFile,
		"-t", formatSeconds(ev.Duration()),
		"-vf", scaleFilter(p),
		"-r", strconv.Itoa(p.FPS),
		"-c:v", p.VideoCodec,
		"-b:v", p.VideoBitrate,
		"-c:a", audioCodec,
		"-b:a", audioBitrate,
		"-ar", audioSampleRate,
		"-ac", "2",
		outFile,
	}
}

// GapArgs builds the arguments that render one gap event from synthetic
// sources: black video and silent stereo audio of the gap's duration.
func GapArgs(ev timeline.Event, outFile string, p Profile) []string {
	return []string{
		"-y", "-hide_banner",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=black:s=%dx%d:r=%d", p.Width, p.Height, p.FPS),
		"-f", "lavfi",
		"-i", "anullsrc=channel_layout=stereo:sample_rate=" + audioSampleRate,
		"-t", formatSeconds(ev.Duration()),
		"-pix_fmt", "yuv420p",
		"-c:v", p.VideoCodec,
		"-b:v", p.VideoBitrate,
		"-c:a", audioCodec,
		"-b:a", audioBitrate,
		outFile,
	}
}

// ConcatArgs builds the arguments for the final join over a concat
// manifest, re-encoding to the shared profile.
func ConcatArgs(manifestPath, outFile string, p Profile) []string {
	return []string{
		"-y", "-hide_banner",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-vf", scaleFilter(p),
		"-r", strconv.Itoa(p.FPS),
		"-c:v", p.VideoCodec,
		"-b:v", p.VideoBitrate,
		"-c:a", audioCodec,
		"-b:a", audioBitrate,
		"-ar", audioSampleRate,
		"-ac", "2",
		outFile,
	}
}

// WriteConcatManifest writes the ordered segment list in the encoder's
// concat demuxer format. Single quotes in paths are escaped per the
// demuxer's quoting rules.
func WriteConcatManifest(path string, segmentFiles []string) error {
	var b strings.Builder
	for _, f := range segmentFiles {
		escaped := strings.ReplaceAll(f, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("cannot write concat manifest: %w", err)
	}
	return nil
}

func scaleFilter(p Profile) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,format=yuv420p",
		p.Width, p.Height, p.Width, p.Height)
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

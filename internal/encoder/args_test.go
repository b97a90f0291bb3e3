package encoder

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/clipforge/clipforge-agent/internal/timeline"
)

var testProfile = Profile{
	Width:        1920,
	Height:       1080,
	FPS:          30,
	VideoCodec:   "libx264",
	VideoBitrate: "8000k",
}

func TestClipArgs(t *testing.T) {
	ev := timeline.Event{
		Kind:       timeline.EventClip,
		StartTime:  10,
		EndTime:    15,
		SourceFile: "/media/a.mp4",
		TrimIn:     2.5,
		TrimOut:    7.5,
	}

	args := ClipArgs(ev, "/tmp/seg0.mp4", testProfile)

	assertArgPair(t, args, "-ss", "2.500")
	assertArgPair(t, args, "-i", "/media/a.mp4")
	assertArgPair(t, args, "-t", "5.000")
	assertArgPair(t, args, "-c:v", "libx264")
	assertArgPair(t, args, "-b:v", "8000k")
	assertArgPair(t, args, "-c:a", "aac")
	if args[len(args)-1] != "/tmp/seg0.mp4" {
		t.Errorf("output file = %q, want /tmp/seg0.mp4", args[len(args)-1])
	}

	vf := argValue(t, args, "-vf")
	if !strings.Contains(vf, "scale=1920:1080") {
		t.Errorf("-vf = %q, missing scale filter", vf)
	}
}

func TestGapArgs_SyntheticSources(t *testing.T) {
	ev := timeline.Event{Kind: timeline.EventGap, StartTime: 3, EndTime: 5}

	args := GapArgs(ev, "/tmp/gap.mp4", testProfile)

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "color=c=black:s=1920x1080:r=30") {
		t.Errorf("args missing black video source: %s", joined)
	}
	if !strings.Contains(joined, "anullsrc=channel_layout=stereo") {
		t.Errorf("args missing silent audio source: %s", joined)
	}
	assertArgPair(t, args, "-t", "2.000")
}

func TestConcatArgs(t *testing.T) {
	args := ConcatArgs("/tmp/list.txt", "/out/final.mp4", testProfile)

	assertArgPair(t, args, "-f", "concat")
	assertArgPair(t, args, "-safe", "0")
	assertArgPair(t, args, "-i", "/tmp/list.txt")
	if args[len(args)-1] != "/out/final.mp4" {
		t.Errorf("output file = %q, want /out/final.mp4", args[len(args)-1])
	}
}

func TestWriteConcatManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.txt")
	segments := []string{"/tmp/seg0.mp4", "/tmp/it's here.mp4"}

	if err := WriteConcatManifest(path, segments); err != nil {
		t.Fatalf("WriteConcatManifest() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("cannot read manifest: %v", err)
	}

	want := "file '/tmp/seg0.mp4'\nfile '/tmp/it'\\''s here.mp4'\n"
	if string(data) != want {
		t.Errorf("manifest = %q, want %q", string(data), want)
	}
}

func argValue(t *testing.T, args []string, flag string) string {
	t.Helper()
	idx := slices.Index(args, flag)
	if idx == -1 || idx+1 >= len(args) {
		t.Fatalf("flag %s not found in %v", flag, args)
	}
	return args[idx+1]
}

func assertArgPair(t *testing.T, args []string, flag, want string) {
	t.Helper()
	if got := argValue(t, args, flag); got != want {
		t.Errorf("%s = %q, want %q", flag, got, want)
	}
}

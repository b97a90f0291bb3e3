package encoder

import (
	"math"
	"testing"
)

func TestParseChunk_CompleteLine(t *testing.T) {
	chunk := "frame=  120 fps= 24.5 q=28.0 size=     512kB time=00:00:04.80 bitrate= 873.8kbits/s speed=1.02x\r"

	p, buf := ParseChunk(chunk, "")
	if p == nil {
		t.Fatal("expected a progress sample")
	}
	if p.Frame != 120 {
		t.Errorf("Frame = %d, want 120", p.Frame)
	}
	if math.Abs(p.FPS-24.5) > 1e-9 {
		t.Errorf("FPS = %v, want 24.5", p.FPS)
	}
	if math.Abs(p.Elapsed-4.8) > 1e-9 {
		t.Errorf("Elapsed = %v, want 4.8", p.Elapsed)
	}
	if buf != "" {
		t.Errorf("remainder = %q, want empty", buf)
	}
}

func TestParseChunk_PartialLineAcrossChunks(t *testing.T) {
	p, buf := ParseChunk("frame=   60 fps= 30.0 time=00:0", "")
	if p != nil {
		t.Fatalf("incomplete line yielded sample %+v", p)
	}

	p, buf = ParseChunk("0:02.00 bitrate=N/A speed=1x\r", buf)
	if p == nil {
		t.Fatal("expected a sample once the line completed")
	}
	if p.Frame != 60 || math.Abs(p.Elapsed-2.0) > 1e-9 {
		t.Fatalf("sample = %+v, want frame 60 at 2.0s", p)
	}
	if buf != "" {
		t.Errorf("remainder = %q, want empty", buf)
	}
}

func TestParseChunk_MostRecentMatchWins(t *testing.T) {
	chunk := "frame=   10 fps= 30.0 time=00:00:00.33 speed=1x\r" +
		"frame=   20 fps= 30.0 time=00:00:00.66 speed=1x\r" +
		"frame=   30 fps= 30.0 time=00:00:01.00 speed=1x\r"

	p, _ := ParseChunk(chunk, "")
	if p == nil || p.Frame != 30 {
		t.Fatalf("sample = %+v, want the latest (frame 30)", p)
	}
}

func TestParseChunk_HourMinuteCarry(t *testing.T) {
	p, _ := ParseChunk("frame= 9000 fps= 25.0 time=01:02:03.50 speed=1x\n", "")
	if p == nil {
		t.Fatal("expected a sample")
	}
	want := 3600.0 + 2*60 + 3.5
	if math.Abs(p.Elapsed-want) > 1e-9 {
		t.Errorf("Elapsed = %v, want %v", p.Elapsed, want)
	}
}

func TestParseChunk_GarbageYieldsNothing(t *testing.T) {
	tests := []struct {
		name  string
		chunk string
	}{
		{name: "banner noise", chunk: "Stream mapping:\n  Stream #0:0 -> #0:0 (h264 -> h264)\n"},
		{name: "empty", chunk: ""},
		{name: "malformed time", chunk: "time=xx:yy:zz\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if p, _ := ParseChunk(tc.chunk, ""); p != nil {
				t.Fatalf("chunk %q yielded sample %+v, want none", tc.chunk, p)
			}
		})
	}
}

func TestParseChunk_RemainderThreading(t *testing.T) {
	_, buf := ParseChunk("frame=   10 fps=", "")
	if buf != "frame=   10 fps=" {
		t.Fatalf("remainder = %q, want the unterminated line", buf)
	}
}

package export

import "testing"

func TestResolveProfile_Tiers(t *testing.T) {
	tests := []struct {
		quality string
		width   int
		height  int
		fps     int
		bitrate string
	}{
		{quality: QualityLow, width: 854, height: 480, fps: 30, bitrate: "1500k"},
		{quality: QualityMedium, width: 1280, height: 720, fps: 30, bitrate: "4000k"},
		{quality: QualityHigh, width: 1920, height: 1080, fps: 30, bitrate: "8000k"},
		{quality: QualityUltra, width: 3840, height: 2160, fps: 60, bitrate: "35000k"},
		{quality: "", width: 1920, height: 1080, fps: 30, bitrate: "8000k"},
		{quality: "nonsense", width: 1920, height: 1080, fps: 30, bitrate: "8000k"},
	}

	for _, tc := range tests {
		t.Run("quality="+tc.quality, func(t *testing.T) {
			p := ResolveProfile(ExportConfig{Quality: tc.quality})
			if p.Width != tc.width || p.Height != tc.height {
				t.Errorf("resolution = %dx%d, want %dx%d", p.Width, p.Height, tc.width, tc.height)
			}
			if p.FPS != tc.fps {
				t.Errorf("fps = %d, want %d", p.FPS, tc.fps)
			}
			if p.VideoBitrate != tc.bitrate {
				t.Errorf("bitrate = %s, want %s", p.VideoBitrate, tc.bitrate)
			}
			if p.VideoCodec != "libx264" {
				t.Errorf("codec = %s, want libx264", p.VideoCodec)
			}
		})
	}
}

func TestResolveProfile_ExplicitFieldsWin(t *testing.T) {
	cfg := ExportConfig{
		Quality:    QualityLow,
		Resolution: &Resolution{Width: 2560, Height: 1440},
		FPS:        48,
		Codec:      "libx265",
		Bitrate:    "12000k",
	}

	p := ResolveProfile(cfg)
	if p.Width != 2560 || p.Height != 1440 {
		t.Errorf("resolution = %dx%d, want 2560x1440", p.Width, p.Height)
	}
	if p.FPS != 48 {
		t.Errorf("fps = %d, want 48", p.FPS)
	}
	if p.VideoCodec != "libx265" {
		t.Errorf("codec = %s, want libx265", p.VideoCodec)
	}
	if p.VideoBitrate != "12000k" {
		t.Errorf("bitrate = %s, want 12000k", p.VideoBitrate)
	}
}

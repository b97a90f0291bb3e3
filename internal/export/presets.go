package export

import "github.com/clipforge/clipforge-agent/internal/encoder"

// Quality tier names accepted in ExportConfig.Quality.
const (
	QualityLow    = "low"
	QualityMedium = "medium"
	QualityHigh   = "high"
	QualityUltra  = "ultra"
)

type preset struct {
	width   int
	height  int
	fps     int
	bitrate string
}

var presets = map[string]preset{
	QualityLow:    {width: 854, height: 480, fps: 30, bitrate: "1500k"},
	QualityMedium: {width: 1280, height: 720, fps: 30, bitrate: "4000k"},
	QualityHigh:   {width: 1920, height: 1080, fps: 30, bitrate: "8000k"},
	QualityUltra:  {width: 3840, height: 2160, fps: 60, bitrate: "35000k"},
}

const defaultCodec = "libx264"

// ResolveProfile maps an export config onto a concrete encoding profile.
// The quality preset supplies defaults; explicitly set config fields win.
// Unknown or empty quality tiers resolve to high.
func ResolveProfile(cfg ExportConfig) encoder.Profile {
	p, ok := presets[cfg.Quality]
	if !ok {
		p = presets[QualityHigh]
	}

	prof := encoder.Profile{
		Width:        p.width,
		Height:       p.height,
		FPS:          p.fps,
		VideoCodec:   defaultCodec,
		VideoBitrate: p.bitrate,
	}

	if cfg.Resolution != nil && cfg.Resolution.Width > 0 && cfg.Resolution.Height > 0 {
		prof.Width = cfg.Resolution.Width
		prof.Height = cfg.Resolution.Height
	}
	if cfg.FPS > 0 {
		prof.FPS = cfg.FPS
	}
	if cfg.Codec != "" {
		prof.VideoCodec = cfg.Codec
	}
	if cfg.Bitrate != "" {
		prof.VideoBitrate = cfg.Bitrate
	}

	return prof
}

// Package timeline defines the editorial timeline model and the event
// builder that flattens multi-track timelines into an ordered, gap-free
// sequence of renderable events.
package timeline

// Clip is one placed piece of source media. StartTime and EndTime position
// the clip on the global timeline; TrimIn and TrimOut select the sub-range
// of the source file. All times are in seconds.
type Clip struct {
	ID          string  `json:"id"`
	SourceFile  string  `json:"source_file"`
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
	TrimIn      float64 `json:"trim_in"`
	TrimOut     float64 `json:"trim_out"`
	TrackID     string  `json:"track_id"`
	TrackNumber int     `json:"track_number"`
}

// Duration returns the clip's length on the global timeline.
func (c Clip) Duration() float64 {
	return c.EndTime - c.StartTime
}

// Track holds clips that do not overlap within the track itself. TrackNumber
// is the overlap-priority key across tracks: higher wins.
type Track struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
	Clips  []Clip `json:"clips"`
}

// Timeline is the immutable snapshot handed to one export call.
type Timeline struct {
	Tracks []Track `json:"tracks"`
}

// Clips collects every clip across all tracks, stamping each with its
// track's ID and number. The returned slice is a copy; the timeline is
// never mutated.
func (t Timeline) Clips() []Clip {
	var clips []Clip
	for _, track := range t.Tracks {
		for _, c := range track.Clips {
			c.TrackID = track.ID
			c.TrackNumber = track.Number
			clips = append(clips, c)
		}
	}
	return clips
}

// EventKind discriminates clip events from synthetic gap events.
type EventKind string

const (
	EventClip EventKind = "clip"
	EventGap  EventKind = "gap"
)

// Event is one resolved, non-overlapping unit of the export. Clip events
// carry source and trim information; gap events only a time range.
type Event struct {
	Kind       EventKind `json:"kind"`
	StartTime  float64   `json:"start_time"`
	EndTime    float64   `json:"end_time"`
	SourceFile string    `json:"source_file,omitempty"`
	TrimIn     float64   `json:"trim_in,omitempty"`
	TrimOut    float64   `json:"trim_out,omitempty"`
	TrackID    string    `json:"track_id,omitempty"`
}

// Duration returns the event's length in seconds.
func (e Event) Duration() float64 {
	return e.EndTime - e.StartTime
}

package encoder

import (
	"regexp"
	"strconv"
	"strings"
)

// Progress is one parsed sample of the encoder's stderr progress line.
// Elapsed is the encoded output position in seconds.
type Progress struct {
	Frame   int64
	FPS     float64
	Elapsed float64
}

var (
	frameRe = regexp.MustCompile(`frame=\s*(\d+)`)
	fpsRe   = regexp.MustCompile(`fps=\s*([\d.]+)`)
	timeRe  = regexp.MustCompile(`time=\s*(\d+):(\d+):(\d+(?:\.\d+)?)`)
)

// ParseChunk extracts the most recent complete progress sample from a chunk
// of encoder stderr. The encoder rewrites its status line with carriage
// returns and chunks may split a line anywhere, so the unterminated
// remainder is threaded back to the caller for the next chunk. Chunks with
// no complete progress line yield nil, never an error.
func ParseChunk(chunk, buffer string) (*Progress, string) {
	data := buffer + chunk

	// Status lines are terminated by CR or LF depending on platform and
	// encoder version; treat both as line breaks.
	normalized := strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(data)
	lines := strings.Split(normalized, "\n")
	remainder := lines[len(lines)-1]
	complete := lines[:len(lines)-1]

	for i := len(complete) - 1; i >= 0; i-- {
		if p := parseLine(complete[i]); p != nil {
			return p, remainder
		}
	}
	return nil, remainder
}

// parseLine returns a sample when the line carries the elapsed-time marker.
func parseLine(line string) *Progress {
	tm := timeRe.FindStringSubmatch(line)
	if tm == nil {
		return nil
	}

	hours, err1 := strconv.ParseInt(tm[1], 10, 64)
	mins, err2 := strconv.ParseInt(tm[2], 10, 64)
	secs, err3 := strconv.ParseFloat(tm[3], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil
	}

	p := &Progress{Elapsed: float64(hours)*3600 + float64(mins)*60 + secs}

	if m := frameRe.FindStringSubmatch(line); m != nil {
		p.Frame, _ = strconv.ParseInt(m[1], 10, 64)
	}
	if m := fpsRe.FindStringSubmatch(line); m != nil {
		p.FPS, _ = strconv.ParseFloat(m[1], 64)
	}
	return p
}

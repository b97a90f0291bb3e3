package timeline

import "sort"

// timeEpsilon absorbs float jitter when comparing clip boundaries.
const timeEpsilon = 1e-9

// BuildEvents flattens a set of clips into an ordered, non-overlapping
// sequence of clip and gap events starting at t=0. The result is
// deterministic for a given clip set regardless of input order.
//
// Overlap resolution is one-directional and non-retroactive: clips are
// considered in (start asc, track desc) order, and when two clips on
// different tracks collide the lower-track clip loses its overlapping
// edge. A clip that spans a higher-track clip on both sides is truncated
// at the higher clip's start and its tail is discarded, not split into a
// second event. Callers that need symmetric resolution must pre-split
// clips themselves.
func BuildEvents(clips []Clip) []Event {
	sorted := make([]Clip, len(clips))
	copy(sorted, clips)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if a.TrackNumber != b.TrackNumber {
			return a.TrackNumber > b.TrackNumber
		}
		return a.ID < b.ID
	})

	var resolved []Clip
	for _, cand := range sorted {
		if cand.Duration() <= timeEpsilon {
			continue
		}

		next := make([]Clip, 0, len(resolved)+1)
		dropped := false
		for i, res := range resolved {
			if !overlaps(cand, res) {
				next = append(next, res)
				continue
			}

			if cand.TrackNumber <= res.TrackNumber {
				// Candidate loses: shrink or drop it.
				cand, dropped = truncate(cand, res)
				next = append(next, res)
				if dropped {
					next = append(next, resolved[i+1:]...)
					break
				}
			} else {
				// Candidate wins: the already-resolved clip is cut down.
				res, resDropped := truncate(res, cand)
				if !resDropped {
					next = append(next, res)
				}
			}
		}
		resolved = next
		if !dropped && cand.Duration() > timeEpsilon {
			resolved = append(resolved, cand)
		}
	}

	sort.Slice(resolved, func(i, j int) bool {
		if resolved[i].StartTime != resolved[j].StartTime {
			return resolved[i].StartTime < resolved[j].StartTime
		}
		return resolved[i].ID < resolved[j].ID
	})

	events := make([]Event, 0, len(resolved)*2)
	cursor := 0.0
	for _, c := range resolved {
		if c.StartTime > cursor+timeEpsilon {
			events = append(events, Event{
				Kind:      EventGap,
				StartTime: cursor,
				EndTime:   c.StartTime,
			})
		}
		events = append(events, Event{
			Kind:       EventClip,
			StartTime:  c.StartTime,
			EndTime:    c.EndTime,
			SourceFile: c.SourceFile,
			TrimIn:     c.TrimIn,
			TrimOut:    c.TrimOut,
			TrackID:    c.TrackID,
		})
		if c.EndTime > cursor {
			cursor = c.EndTime
		}
	}

	return events
}

func overlaps(a, b Clip) bool {
	return a.StartTime < b.EndTime-timeEpsilon && b.StartTime < a.EndTime-timeEpsilon
}

// truncate shrinks victim out of winner's time range, keeping the trim
// window in sync with the surviving edge. Returns the adjusted clip and
// whether the victim was consumed entirely.
func truncate(victim, winner Clip) (Clip, bool) {
	fullyCovered := victim.StartTime >= winner.StartTime-timeEpsilon &&
		victim.EndTime <= winner.EndTime+timeEpsilon
	if fullyCovered {
		return victim, true
	}

	if victim.StartTime >= winner.StartTime-timeEpsilon {
		// Leading edge inside the winner: push the start right.
		shift := winner.EndTime - victim.StartTime
		victim.StartTime = winner.EndTime
		victim.TrimIn += shift
	} else {
		// Trailing edge inside the winner, or the victim spans the winner
		// entirely; either way the end is pulled back to the winner's
		// start. A spanning victim loses its tail segment here.
		cut := victim.EndTime - winner.StartTime
		victim.EndTime = winner.StartTime
		victim.TrimOut -= cut
	}

	if victim.Duration() <= timeEpsilon {
		return victim, true
	}
	return victim, false
}

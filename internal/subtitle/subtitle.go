// Package subtitle holds the parsed subtitle timeline the synchronizer
// works against, plus a WebVTT parser to produce it.
package subtitle

import "sort"

// Cue is one subtitle entry on the global timeline, times in seconds.
type Cue struct {
	StartTime float64
	EndTime   float64
	Text      string
}

// Duration returns the cue's window length in seconds.
func (c Cue) Duration() float64 {
	return c.EndTime - c.StartTime
}

// Track is an ordered collection of cues.
type Track struct {
	Cues []Cue
}

// Add appends a cue without sorting.
func (t *Track) Add(c Cue) {
	t.Cues = append(t.Cues, c)
}

// Len returns the number of cues.
func (t *Track) Len() int {
	return len(t.Cues)
}

// IsEmpty reports whether the track has no cues.
func (t *Track) IsEmpty() bool {
	return len(t.Cues) == 0
}

// Sort orders cues by ascending start time, preserving the relative order
// of cues that start together.
func (t *Track) Sort() {
	sort.SliceStable(t.Cues, func(i, j int) bool {
		return t.Cues[i].StartTime < t.Cues[j].StartTime
	})
}

// End returns the latest end time across all cues, 0 for an empty track.
func (t *Track) End() float64 {
	var end float64
	for _, c := range t.Cues {
		if c.EndTime > end {
			end = c.EndTime
		}
	}
	return end
}

package track

import (
	"math"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/region23/tts-sync/internal/audio"
)

// Track is an ordered-by-insertion collection of segments sharing one sample
// format. Created empty per synchronization run, mutated through explicit
// append/normalize/merge operations, discarded after the run.
type Track struct {
	Segments   []*Segment
	SampleRate int
	Channels   int
}

// NewTrack creates an empty track with the given sample format.
func NewTrack(sampleRate, channels int) *Track {
	return &Track{
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

// AddSegment appends a segment. No sorting or deduplication happens here.
func (t *Track) AddSegment(s *Segment) {
	t.Segments = append(t.Segments, s)
}

// Len returns the number of segments.
func (t *Track) Len() int {
	return len(t.Segments)
}

// IsEmpty reports whether the track holds no segments.
func (t *Track) IsEmpty() bool {
	return len(t.Segments) == 0
}

// SortByStartTime stable-sorts segments by ascending start time. Segments
// may still overlap afterwards; Merge resolves overlap last-write-wins.
func (t *Track) SortByStartTime() {
	sort.SliceStable(t.Segments, func(i, j int) bool {
		return t.Segments[i].StartTime < t.Segments[j].StartTime
	})
}

// Span returns the earliest start and latest end across all segments.
// Both are 0 for an empty track.
func (t *Track) Span() (minStart, maxEnd float64) {
	if t.IsEmpty() {
		return 0, 0
	}
	minStart = math.Inf(1)
	for _, s := range t.Segments {
		if s.StartTime < minStart {
			minStart = s.StartTime
		}
		if s.EndTime > maxEnd {
			maxEnd = s.EndTime
		}
	}
	return minStart, maxEnd
}

// Merge flattens the track into one buffer spanning [minStart, maxEnd].
// Each segment's samples are copied at the offset implied by its start time
// relative to the span; samples that would land past the allocated buffer
// are dropped with a warning. Overlapping segments resolve by later
// insertion order overwriting earlier (no mixing). An empty track merges to
// an empty buffer, not an error.
func (t *Track) Merge() *audio.Buffer {
	if t.IsEmpty() {
		log.Warn("merging empty audio track")
		return audio.NewBuffer(nil, t.SampleRate, t.Channels)
	}

	minStart, maxEnd := t.Span()
	frameRate := float64(t.SampleRate) * float64(t.Channels)
	total := int((maxEnd - minStart) * frameRate)

	log.Debug("merging audio track",
		"segments", len(t.Segments),
		"duration", maxEnd-minStart,
		"samples", total)

	if total <= 0 {
		log.Warn("merged track span has zero samples")
		return audio.NewBuffer(nil, t.SampleRate, t.Channels)
	}

	merged := make([]float64, total)
	for i, seg := range t.Segments {
		if seg.Audio.IsEmpty() {
			log.Warn("segment has no samples", "index", i, "text", seg.Text)
			continue
		}
		offset := int((seg.StartTime - minStart) * frameRate)
		for j, sample := range seg.Audio.Samples {
			pos := offset + j
			if pos >= len(merged) {
				log.Warn("segment overruns merged buffer, dropping tail",
					"index", i,
					"dropped", len(seg.Audio.Samples)-j)
				break
			}
			merged[pos] = sample
		}
	}

	return audio.NewBuffer(merged, t.SampleRate, t.Channels)
}

// NormalizeSegments normalizes every segment independently to targetPeak.
// Segments below peak are amplified more than a whole-track pass would,
// which is exactly the per-segment policy's point.
func (t *Track) NormalizeSegments(targetPeak float64) {
	for _, seg := range t.Segments {
		seg.Audio.Normalize(targetPeak)
	}
}

// NormalizeTrack applies one gain to every segment, computed so the merged
// buffer's peak lands on targetPeak. Relative level differences between
// segments are preserved.
func (t *Track) NormalizeTrack(targetPeak float64) {
	if t.IsEmpty() {
		return
	}
	peak := t.Merge().PeakAmplitude()
	if peak <= 0 {
		return
	}
	gain := targetPeak / peak
	for _, seg := range t.Segments {
		for i := range seg.Audio.Samples {
			seg.Audio.Samples[i] *= gain
		}
	}
}

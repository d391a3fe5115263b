// Package track models timed audio segments and the ordered track that
// assembles them into a single timeline.
package track

import (
	"github.com/region23/tts-sync/internal/audio"
)

// Segment couples a sample buffer with its window on the global timeline.
// StartTime/EndTime are the target window in seconds; the buffer's own
// duration may differ until tempo correction has run.
type Segment struct {
	Audio     *audio.Buffer
	StartTime float64
	EndTime   float64

	// Text is the cue label. Empty for a pure-pause segment.
	Text string

	// RawEncoded optionally keeps the originally delivered encoded bytes
	// for lossless passthrough. Nil when the segment was produced locally.
	RawEncoded []byte
}

// NewSegment creates a segment over the given timeline window.
func NewSegment(buf *audio.Buffer, startTime, endTime float64, text string) *Segment {
	return &Segment{
		Audio:     buf,
		StartTime: startTime,
		EndTime:   endTime,
		Text:      text,
	}
}

// NewSilenceSegment creates a pure-pause segment filling [startTime, endTime).
func NewSilenceSegment(startTime, endTime float64, sampleRate, channels int) *Segment {
	return &Segment{
		Audio:     audio.NewSilence(endTime-startTime, sampleRate, channels),
		StartTime: startTime,
		EndTime:   endTime,
	}
}

// Duration returns the target window length in seconds.
func (s *Segment) Duration() float64 {
	return s.EndTime - s.StartTime
}

// Clone returns a deep copy of the segment.
func (s *Segment) Clone() *Segment {
	c := *s
	c.Audio = s.Audio.Clone()
	if s.RawEncoded != nil {
		c.RawEncoded = append([]byte(nil), s.RawEncoded...)
	}
	return &c
}

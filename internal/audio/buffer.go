// Package audio provides the sample buffer data model shared by every
// processing stage, plus decoding of synthesized speech into buffers.
package audio

import (
	"math"
)

// Buffer holds normalized float samples together with the format needed to
// interpret them. Samples are interleaved when Channels > 1 and nominally in
// [-1.0, 1.0]; input is not clamped, output conversion to PCM is.
//
// Buffer is a value type: cloned freely, never aliased across segments.
type Buffer struct {
	Samples    []float64
	SampleRate int
	Channels   int
}

// NewBuffer creates a buffer from samples and format parameters.
func NewBuffer(samples []float64, sampleRate, channels int) *Buffer {
	return &Buffer{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

// NewSilence creates a zero-filled buffer of the given duration.
func NewSilence(duration float64, sampleRate, channels int) *Buffer {
	n := int(duration * float64(sampleRate) * float64(channels))
	if n < 0 {
		n = 0
	}
	return &Buffer{
		Samples:    make([]float64, n),
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 || b.Channels <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate) / float64(b.Channels)
}

// Len returns the number of samples (all channels interleaved).
func (b *Buffer) Len() int {
	return len(b.Samples)
}

// IsEmpty reports whether the buffer holds no samples.
func (b *Buffer) IsEmpty() bool {
	return len(b.Samples) == 0
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	samples := make([]float64, len(b.Samples))
	copy(samples, b.Samples)
	return &Buffer{
		Samples:    samples,
		SampleRate: b.SampleRate,
		Channels:   b.Channels,
	}
}

// PeakAmplitude returns max(|sample|), 0 for an empty buffer.
func (b *Buffer) PeakAmplitude() float64 {
	peak := 0.0
	for _, s := range b.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

// Normalize scales the buffer in place so its peak amplitude equals
// targetPeak. Pure silence (zero peak) is left untouched rather than
// amplified into garbage.
func (b *Buffer) Normalize(targetPeak float64) {
	if b.IsEmpty() {
		return
	}
	peak := b.PeakAmplitude()
	if peak <= 0 {
		return
	}
	gain := targetPeak / peak
	for i := range b.Samples {
		b.Samples[i] *= gain
	}
}

// NormalizeDB normalizes to a peak expressed in dBFS, e.g. -6.0 for a peak
// of 10^(-6/20) ≈ 0.501.
func (b *Buffer) NormalizeDB(targetDB float64) {
	b.Normalize(math.Pow(10, targetDB/20.0))
}

package processor

import (
	"math"
	"testing"

	"github.com/region23/tts-sync/internal/audio"
)

// testBufferOptions configures the synthetic audio to generate
type testBufferOptions struct {
	DurationSecs float64 // Total duration in seconds
	SampleRate   int     // Sample rate (default: 44100)
	ToneFreq     float64 // Sine wave frequency in Hz (0 = no tone)
	ToneAmp      float64 // Tone amplitude, linear (default: 0.5)
	SilenceGaps  []struct {
		Start    float64 // Start time of gap in seconds
		Duration float64 // Gap duration in seconds
	}
}

// generateTestBuffer creates a synthetic buffer for testing: a sine tone
// with optional hard-silenced gaps at known positions.
func generateTestBuffer(t *testing.T, opts testBufferOptions) *audio.Buffer {
	t.Helper()

	if opts.SampleRate == 0 {
		opts.SampleRate = 44100
	}
	if opts.DurationSecs == 0 {
		opts.DurationSecs = 2.0
	}
	if opts.ToneAmp == 0 {
		opts.ToneAmp = 0.5
	}
	if opts.ToneFreq == 0 {
		opts.ToneFreq = 440.0
	}

	total := int(opts.DurationSecs * float64(opts.SampleRate))
	samples := make([]float64, total)
	for i := range samples {
		tm := float64(i) / float64(opts.SampleRate)
		samples[i] = opts.ToneAmp * math.Sin(2*math.Pi*opts.ToneFreq*tm)
	}

	for _, gap := range opts.SilenceGaps {
		start := int(gap.Start * float64(opts.SampleRate))
		end := int((gap.Start + gap.Duration) * float64(opts.SampleRate))
		if start < 0 {
			start = 0
		}
		if end > total {
			end = total
		}
		for i := start; i < end; i++ {
			samples[i] = 0
		}
	}

	return audio.NewBuffer(samples, opts.SampleRate, 1)
}

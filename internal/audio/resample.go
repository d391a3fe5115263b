package audio

import (
	"math"

	"github.com/charmbracelet/log"
)

// Resample converts a buffer to the given sample rate and channel count so
// that decoded speech matches the track format regardless of what the
// provider returned. Buffers already in the target format come back
// unchanged. Rate conversion interpolates linearly between adjacent frames.
func Resample(b *Buffer, sampleRate, channels int) *Buffer {
	if b == nil || sampleRate <= 0 || channels <= 0 {
		return b
	}
	if b.SampleRate == sampleRate && b.Channels == channels {
		return b
	}

	log.Debug("converting audio format",
		"from_rate", b.SampleRate, "to_rate", sampleRate,
		"from_channels", b.Channels, "to_channels", channels)

	out := b
	if out.Channels != channels {
		out = remixChannels(out, channels)
	}
	if out.SampleRate != sampleRate {
		out = convertRate(out, sampleRate)
	}
	return out
}

// remixChannels mixes every frame down to mono and spreads it across the
// target channel count.
func remixChannels(b *Buffer, channels int) *Buffer {
	frames := b.Len() / b.Channels
	samples := make([]float64, frames*channels)
	for f := 0; f < frames; f++ {
		var sum float64
		base := f * b.Channels
		for c := 0; c < b.Channels; c++ {
			sum += b.Samples[base+c]
		}
		mono := sum / float64(b.Channels)
		outBase := f * channels
		for c := 0; c < channels; c++ {
			samples[outBase+c] = mono
		}
	}
	return NewBuffer(samples, b.SampleRate, channels)
}

// convertRate changes the sample rate, keeping the duration constant to
// within one frame.
func convertRate(b *Buffer, sampleRate int) *Buffer {
	frames := b.Len() / b.Channels
	if frames == 0 {
		return NewBuffer(nil, sampleRate, b.Channels)
	}

	outFrames := int(math.Round(float64(frames) * float64(sampleRate) / float64(b.SampleRate)))
	samples := make([]float64, outFrames*b.Channels)
	step := float64(b.SampleRate) / float64(sampleRate)
	for f := 0; f < outFrames; f++ {
		pos := float64(f) * step
		i := int(pos)
		if i >= frames-1 {
			last := (frames - 1) * b.Channels
			for c := 0; c < b.Channels; c++ {
				samples[f*b.Channels+c] = b.Samples[last+c]
			}
			continue
		}
		frac := pos - float64(i)
		for c := 0; c < b.Channels; c++ {
			a := b.Samples[i*b.Channels+c]
			next := b.Samples[(i+1)*b.Channels+c]
			samples[f*b.Channels+c] = a + (next-a)*frac
		}
	}
	return NewBuffer(samples, sampleRate, b.Channels)
}

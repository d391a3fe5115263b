package processor

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"github.com/region23/tts-sync/internal/audio"
)

// Algorithm selects the interpolation used when resampling for a tempo
// change.
type Algorithm string

const (
	// AlgorithmLinear interpolates between adjacent samples. Fast, lowest
	// quality.
	AlgorithmLinear Algorithm = "linear"
	// AlgorithmFIR runs a 64-tap windowed sinc filter. Middle ground.
	AlgorithmFIR Algorithm = "fir"
	// AlgorithmSinc runs a 256-tap windowed sinc filter. Slowest, best
	// quality.
	AlgorithmSinc Algorithm = "sinc"
)

const (
	firTaps  = 64
	sincTaps = 256
)

// ParseAlgorithm maps a config/CLI string to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case AlgorithmLinear, AlgorithmFIR, AlgorithmSinc:
		return Algorithm(name), nil
	default:
		return "", fmt.Errorf("%w: unknown tempo algorithm %q", ErrInvalidParameters, name)
	}
}

// AdjustTempo resamples the buffer by tempoFactor without touching the
// sample rate, so playback speeds up when tempoFactor > 1 and slows down
// when < 1. The output carries round(len/tempoFactor) samples.
func AdjustTempo(buf *audio.Buffer, tempoFactor float64, algorithm Algorithm) (*audio.Buffer, error) {
	if tempoFactor <= 0 {
		return nil, fmt.Errorf("%w: tempo factor %v must be positive",
			ErrInvalidParameters, tempoFactor)
	}
	if buf == nil || buf.IsEmpty() {
		return nil, fmt.Errorf("%w: cannot adjust tempo of empty buffer", ErrInvalidParameters)
	}

	log.Debug("adjusting tempo",
		"factor", tempoFactor,
		"algorithm", algorithm,
		"samples", buf.Len())

	switch algorithm {
	case AlgorithmLinear:
		return resampleLinear(buf, tempoFactor), nil
	case AlgorithmFIR:
		return resampleWindowedSinc(buf, tempoFactor, firTaps, hannWindow), nil
	case AlgorithmSinc:
		return resampleWindowedSinc(buf, tempoFactor, sincTaps, blackmanHarrisWindow), nil
	default:
		return nil, fmt.Errorf("%w: unknown tempo algorithm %q", ErrInvalidParameters, algorithm)
	}
}

// FitToDuration stretches or compresses the buffer so its duration matches
// targetDuration.
func FitToDuration(buf *audio.Buffer, targetDuration float64, algorithm Algorithm) (*audio.Buffer, error) {
	if targetDuration <= 0 {
		return nil, fmt.Errorf("%w: target duration %v must be positive",
			ErrInvalidParameters, targetDuration)
	}
	if buf == nil || buf.Duration() <= 0 {
		return nil, fmt.Errorf("%w: source duration must be positive", ErrInvalidParameters)
	}
	current := buf.Duration()
	factor := current / targetDuration
	log.Debug("fitting audio to duration",
		"current", current,
		"target", targetDuration,
		"factor", factor)
	return AdjustTempo(buf, factor, algorithm)
}

func outputSize(inputLen int, tempoFactor float64) int {
	return int(math.Round(float64(inputLen) / tempoFactor))
}

func resampleLinear(buf *audio.Buffer, tempoFactor float64) *audio.Buffer {
	size := outputSize(buf.Len(), tempoFactor)
	out := make([]float64, 0, size)
	for i := 0; i < size; i++ {
		pos := float64(i) * tempoFactor
		idx := int(pos)
		frac := pos - float64(idx)
		switch {
		case idx+1 < buf.Len():
			out = append(out, buf.Samples[idx]*(1-frac)+buf.Samples[idx+1]*frac)
		case idx < buf.Len():
			out = append(out, buf.Samples[idx])
		default:
			out = append(out, buf.Samples[buf.Len()-1])
		}
	}
	return audio.NewBuffer(out, buf.SampleRate, buf.Channels)
}

// hannWindow evaluates the Hann window for tap j of taps.
func hannWindow(j, taps int) float64 {
	return 0.5 * (1 - math.Cos(2*math.Pi*float64(j)/float64(taps-1)))
}

// blackmanHarrisWindow evaluates the 4-term Blackman-Harris window for tap
// j of taps.
func blackmanHarrisWindow(j, taps int) float64 {
	x := 2 * math.Pi * float64(j) / float64(taps-1)
	return 0.35875 - 0.48829*math.Cos(x) + 0.14128*math.Cos(2*x) - 0.01168*math.Cos(3*x)
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(x) / x
}

// resampleWindowedSinc evaluates each output sample as a windowed sinc
// interpolation over taps input samples centered at the fractional read
// position. Taps that fall outside the buffer are skipped and the result
// is renormalized by the window weight that remained in range.
func resampleWindowedSinc(buf *audio.Buffer, tempoFactor float64, taps int, window func(j, taps int) float64) *audio.Buffer {
	size := outputSize(buf.Len(), tempoFactor)
	out := make([]float64, size)
	for i := 0; i < size; i++ {
		pos := float64(i) * tempoFactor
		idx := int(pos)
		frac := pos - float64(idx)

		var sum, weightSum float64
		for j := 0; j < taps; j++ {
			offset := j - taps/2
			sampleIdx := idx + offset
			if sampleIdx < 0 || sampleIdx >= buf.Len() {
				continue
			}
			w := window(j, taps)
			sum += buf.Samples[sampleIdx] * sinc((frac-float64(offset))*math.Pi) * w
			weightSum += w
		}
		if weightSum > 0 {
			out[i] = sum / weightSum
		}
	}
	return audio.NewBuffer(out, buf.SampleRate, buf.Channels)
}

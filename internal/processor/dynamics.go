package processor

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"github.com/region23/tts-sync/internal/audio"
)

// CompressorSettings configures Compress. Threshold and MakeupGain are in
// dB (threshold negative), Attack and Release in milliseconds.
type CompressorSettings struct {
	Threshold  float64
	Ratio      float64
	Attack     float64
	Release    float64
	MakeupGain float64
}

// DefaultCompressorSettings is a gentle speech preset.
func DefaultCompressorSettings() CompressorSettings {
	return CompressorSettings{
		Threshold:  -20.0,
		Ratio:      4.0,
		Attack:     5.0,
		Release:    50.0,
		MakeupGain: 3.0,
	}
}

// Compress applies downward dynamic range compression using a per-sample
// envelope follower with separate attack and release time constants. Output
// samples are clamped to [-1, 1] after makeup gain.
func Compress(buf *audio.Buffer, settings CompressorSettings) (*audio.Buffer, error) {
	if buf == nil || buf.IsEmpty() {
		return nil, fmt.Errorf("%w: cannot compress empty buffer", ErrInvalidInput)
	}
	if settings.Ratio <= 1.0 {
		return nil, fmt.Errorf("%w: compression ratio %v must exceed 1.0",
			ErrInvalidParameters, settings.Ratio)
	}

	log.Debug("applying compression",
		"threshold_db", settings.Threshold,
		"ratio", settings.Ratio,
		"attack_ms", settings.Attack,
		"release_ms", settings.Release,
		"makeup_db", settings.MakeupGain)

	thresholdLinear := math.Pow(10, settings.Threshold/20)
	makeupLinear := math.Pow(10, settings.MakeupGain/20)

	attackSamples := settings.Attack * 0.001 * float64(buf.SampleRate)
	releaseSamples := settings.Release * 0.001 * float64(buf.SampleRate)
	attackCoef := timeCoefficient(attackSamples)
	releaseCoef := timeCoefficient(releaseSamples)

	out := make([]float64, buf.Len())
	var envelope float64
	for i, sample := range buf.Samples {
		abs := math.Abs(sample)
		if abs > envelope {
			envelope = attackCoef*envelope + (1-attackCoef)*abs
		} else {
			envelope = releaseCoef*envelope + (1-releaseCoef)*abs
		}

		gain := 1.0
		if envelope > thresholdLinear {
			slope := 1.0 / settings.Ratio
			dbAbove := 20 * math.Log10(envelope/thresholdLinear)
			reduction := dbAbove * (1 - slope)
			gain = math.Pow(10, -reduction/20)
		}

		out[i] = clampSample(sample * gain * makeupLinear)
	}

	return audio.NewBuffer(out, buf.SampleRate, buf.Channels), nil
}

func timeCoefficient(samples float64) float64 {
	if samples <= 0 {
		return 0
	}
	return math.Exp(-1 / samples)
}

func clampSample(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

// EqualizerSettings configures Equalize. Gains are in dB; LowFreq and
// HighFreq are the band crossover points in Hz.
type EqualizerSettings struct {
	LowGain  float64
	MidGain  float64
	HighGain float64
	LowFreq  float64
	HighFreq float64
}

// DefaultEqualizerSettings is a mild presence lift for synthesized speech.
func DefaultEqualizerSettings() EqualizerSettings {
	return EqualizerSettings{
		LowGain:  0.0,
		MidGain:  1.5,
		HighGain: 1.0,
		LowFreq:  250.0,
		HighFreq: 4000.0,
	}
}

// Equalize splits the signal into three bands with first-order filters,
// applies per-band gain and recombines. The mid band is whatever the low
// pass and high pass leave behind, so the three bands always sum back to
// the input at unity gain.
func Equalize(buf *audio.Buffer, settings EqualizerSettings) (*audio.Buffer, error) {
	if buf == nil || buf.IsEmpty() {
		return nil, fmt.Errorf("%w: cannot equalize empty buffer", ErrInvalidInput)
	}
	if settings.LowFreq >= settings.HighFreq {
		return nil, fmt.Errorf("%w: low crossover %vHz must sit below high crossover %vHz",
			ErrInvalidParameters, settings.LowFreq, settings.HighFreq)
	}

	log.Debug("applying equalization",
		"low_db", settings.LowGain,
		"mid_db", settings.MidGain,
		"high_db", settings.HighGain,
		"low_hz", settings.LowFreq,
		"high_hz", settings.HighFreq)

	lowGain := math.Pow(10, settings.LowGain/20)
	midGain := math.Pow(10, settings.MidGain/20)
	highGain := math.Pow(10, settings.HighGain/20)

	// First order RC coefficients: dt/(RC+dt) for the low pass,
	// RC/(RC+dt) for the high pass.
	dt := 1.0 / float64(buf.SampleRate)
	rcLow := 1 / (2 * math.Pi * settings.LowFreq)
	rcHigh := 1 / (2 * math.Pi * settings.HighFreq)
	alphaLow := dt / (rcLow + dt)
	alphaHigh := rcHigh / (rcHigh + dt)

	n := buf.Len()
	lowPass := make([]float64, n)
	highPass := make([]float64, n)

	lowPass[0] = buf.Samples[0]
	highPass[0] = alphaHigh * buf.Samples[0]
	for i := 1; i < n; i++ {
		lowPass[i] = lowPass[i-1] + alphaLow*(buf.Samples[i]-lowPass[i-1])
		highPass[i] = alphaHigh * (highPass[i-1] + buf.Samples[i] - buf.Samples[i-1])
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		mid := buf.Samples[i] - (lowPass[i] + highPass[i])
		out[i] = clampSample(lowPass[i]*lowGain + mid*midGain + highPass[i]*highGain)
	}

	return audio.NewBuffer(out, buf.SampleRate, buf.Channels), nil
}

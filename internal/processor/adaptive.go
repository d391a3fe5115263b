package processor

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/region23/tts-sync/internal/audio"
)

// minTargetSpeechDuration is the floor below which per-span adjustment is
// pointless and the whole buffer is compressed instead, pauses included.
const minTargetSpeechDuration = 0.1

// AdaptiveTempoAdjustment fits the buffer to targetDuration while keeping
// detected pauses at their original length. Speech spans between pauses are
// stretched or compressed by a single shared factor; the pauses are copied
// through untouched. When preservePauses is false, the buffer has no
// detected pauses, or the speech share of the target is too small to work
// with, the whole buffer is fitted uniformly instead.
func AdaptiveTempoAdjustment(buf *audio.Buffer, targetDuration float64, algorithm Algorithm, preservePauses bool) (*audio.Buffer, error) {
	if !preservePauses {
		return FitToDuration(buf, targetDuration, algorithm)
	}
	if targetDuration <= 0 {
		return nil, fmt.Errorf("%w: target duration %v must be positive",
			ErrInvalidParameters, targetDuration)
	}

	analysis, err := Analyze(buf)
	if err != nil {
		return nil, err
	}
	if len(analysis.Silences) == 0 {
		log.Debug("no pauses detected, fitting uniformly")
		return FitToDuration(buf, targetDuration, algorithm)
	}

	// The speech share of the target scales with the speech share of the
	// input. Duration is used as the speech figure here; treating leading
	// silence as speech overshoots slightly but keeps the factor stable
	// for short buffers.
	speechDuration := analysis.Duration
	targetSpeech := targetDuration * (speechDuration / buf.Duration())
	if targetSpeech <= minTargetSpeechDuration {
		log.Debug("target speech duration too short for pause preservation",
			"target_speech", targetSpeech)
		return FitToDuration(buf, targetDuration, algorithm)
	}
	factor := speechDuration / targetSpeech

	log.Debug("adjusting speech spans around pauses",
		"pauses", len(analysis.Silences),
		"factor", factor)

	frameRate := float64(buf.SampleRate * buf.Channels)
	out := make([]float64, 0, buf.Len())
	pos := 0
	for _, silence := range analysis.Silences {
		start := int(silence.Start * frameRate)
		end := int(silence.End * frameRate)
		if start > buf.Len() {
			start = buf.Len()
		}
		if end > buf.Len() {
			end = buf.Len()
		}

		if start > pos {
			adjusted, err := AdjustTempo(
				audio.NewBuffer(buf.Samples[pos:start], buf.SampleRate, buf.Channels),
				factor, algorithm)
			if err != nil {
				return nil, err
			}
			out = append(out, adjusted.Samples...)
		}
		out = append(out, buf.Samples[start:end]...)
		pos = end
	}
	if pos < buf.Len() {
		adjusted, err := AdjustTempo(
			audio.NewBuffer(buf.Samples[pos:], buf.SampleRate, buf.Channels),
			factor, algorithm)
		if err != nil {
			return nil, err
		}
		out = append(out, adjusted.Samples...)
	}

	return audio.NewBuffer(out, buf.SampleRate, buf.Channels), nil
}

// Package processor implements the audio analysis and tempo-correction
// engine: loudness/silence measurement, interpolation-based tempo change,
// and the pause-preserving adaptive stretch built on top of both.
package processor

import "errors"

// Typed error kinds. Structural precondition violations fail fast with one
// of these; quality degradations never surface as errors (callers fall back
// to a simpler strategy instead).
var (
	// ErrInvalidParameters marks out-of-range inputs such as a non-positive
	// tempo factor or gain.
	ErrInvalidParameters = errors.New("processor: invalid parameters")

	// ErrInvalidInput marks analysis or dynamics operations on empty audio.
	ErrInvalidInput = errors.New("processor: invalid input audio")

	// ErrAudioProcessing marks internal DSP invariant violations.
	ErrAudioProcessing = errors.New("processor: audio processing failed")
)

// Package tts abstracts speech synthesis behind a provider interface and
// ships an OpenAI-backed implementation.
package tts

import (
	"context"
	"errors"
)

// ErrEmptyText is returned when synthesis is requested for no text.
var ErrEmptyText = errors.New("tts: empty text")

// Provider synthesizes speech for a piece of text. The duration hint, in
// seconds, tells the provider how long the produced audio ideally runs; a
// provider may use it to pick a speaking speed or ignore it entirely. The
// returned bytes are encoded audio in whatever container the provider
// emits; callers decode them separately.
type Provider interface {
	Generate(ctx context.Context, text string, targetDurationHint float64) ([]byte, error)
}

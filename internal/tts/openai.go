package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	defaultModel = openai.SpeechModelTTS1
	defaultVoice = openai.AudioSpeechNewParamsVoiceAlloy

	// WAV responses decode in-process without an external transcoder.
	defaultFormat = openai.AudioSpeechNewParamsResponseFormatWAV

	minSpeed = 0.25
	maxSpeed = 4.0
)

type config struct {
	model      openai.SpeechModel
	voice      openai.AudioSpeechNewParamsVoice
	format     openai.AudioSpeechNewParamsResponseFormat
	speed      float64
	baseURL    string
	httpClient *http.Client
}

// Option configures the OpenAI provider.
type Option func(*config)

// WithModel selects the speech model, e.g. "tts-1" or "tts-1-hd".
func WithModel(model string) Option {
	return func(c *config) { c.model = openai.SpeechModel(model) }
}

// WithVoice selects the synthesis voice, e.g. "alloy" or "nova".
func WithVoice(voice string) Option {
	return func(c *config) { c.voice = openai.AudioSpeechNewParamsVoice(voice) }
}

// WithResponseFormat selects the encoded audio container, e.g. "wav" or
// "mp3".
func WithResponseFormat(format string) Option {
	return func(c *config) { c.format = openai.AudioSpeechNewParamsResponseFormat(format) }
}

// WithSpeed fixes the speaking speed instead of deriving it from the
// per-request duration hint.
func WithSpeed(speed float64) Option {
	return func(c *config) { c.speed = speed }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithHTTPClient replaces the transport, mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) { c.httpClient = client }
}

// OpenAI synthesizes speech through the OpenAI audio API.
type OpenAI struct {
	client *openai.Client
	cfg    config
}

var _ Provider = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI speech provider. The API key is required.
func NewOpenAI(apiKey string, opts ...Option) *OpenAI {
	cfg := config{
		model:  defaultModel,
		voice:  defaultVoice,
		format: defaultFormat,
	}
	for _, o := range opts {
		o(&cfg)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(cfg.httpClient))
	}
	client := openai.NewClient(clientOpts...)

	return &OpenAI{client: &client, cfg: cfg}
}

// Generate synthesizes speech for text and returns the encoded bytes. When
// no fixed speed is configured the duration hint is left to the caller's
// tempo pipeline; the request then runs at natural speed, which keeps the
// voice quality and lets resampling own the timing.
func (o *OpenAI) Generate(ctx context.Context, text string, targetDurationHint float64) ([]byte, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	params := openai.AudioSpeechNewParams{
		Model: o.cfg.model,
		Input: text,
		Voice: o.cfg.voice,
	}
	if o.cfg.format != "" {
		params.ResponseFormat = o.cfg.format
	}
	if o.cfg.speed != 0 {
		speed := o.cfg.speed
		if speed < minSpeed {
			speed = minSpeed
		}
		if speed > maxSpeed {
			speed = maxSpeed
		}
		params.Speed = openai.Float(speed)
	}

	log.Debug("requesting speech synthesis",
		"model", o.cfg.model,
		"voice", o.cfg.voice,
		"chars", len(text),
		"duration_hint", targetDurationHint)

	resp, err := o.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading synthesized audio: %w", err)
	}
	return data, nil
}

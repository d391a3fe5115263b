// Package config loads and validates the TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// TTS contains speech synthesis settings.
type TTS struct {
	APIKey  string  `toml:"api_key"`
	BaseURL string  `toml:"base_url"`
	Model   string  `toml:"model"`
	Voice   string  `toml:"voice"`
	Format  string  `toml:"format"`
	Speed   float64 `toml:"speed"`
}

// Sync contains synchronization pipeline settings.
type Sync struct {
	Algorithm      string `toml:"algorithm"`
	PreservePauses bool   `toml:"preserve_pauses"`
	// Normalization is "track", "segment" or "none".
	Normalization string  `toml:"normalization"`
	TargetPeakDB  float64 `toml:"target_peak_db"`
	SampleRate    int     `toml:"sample_rate"`
	Channels      int     `toml:"channels"`
}

// Dynamics contains the optional post-processing chain.
type Dynamics struct {
	CompressorEnabled   bool    `toml:"compressor_enabled"`
	CompressorThreshold float64 `toml:"compressor_threshold_db"`
	CompressorRatio     float64 `toml:"compressor_ratio"`
	CompressorAttack    float64 `toml:"compressor_attack_ms"`
	CompressorRelease   float64 `toml:"compressor_release_ms"`
	CompressorMakeup    float64 `toml:"compressor_makeup_db"`

	EqualizerEnabled bool    `toml:"equalizer_enabled"`
	EqualizerLow     float64 `toml:"equalizer_low_db"`
	EqualizerMid     float64 `toml:"equalizer_mid_db"`
	EqualizerHigh    float64 `toml:"equalizer_high_db"`
	EqualizerLowHz   float64 `toml:"equalizer_low_hz"`
	EqualizerHighHz  float64 `toml:"equalizer_high_hz"`
}

// Output contains encode settings.
type Output struct {
	Format     string `toml:"format"`
	FFmpegPath string `toml:"ffmpeg_path"`
}

// Logging contains log output settings.
type Logging struct {
	Level string `toml:"level"`
}

// Config encapsulates all configuration values.
type Config struct {
	TTS      TTS      `toml:"tts"`
	Sync     Sync     `toml:"sync"`
	Dynamics Dynamics `toml:"dynamics"`
	Output   Output   `toml:"output"`
	Logging  Logging  `toml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TTS: TTS{
			Model:  "tts-1",
			Voice:  "alloy",
			Format: "wav",
		},
		Sync: Sync{
			Algorithm:      "sinc",
			PreservePauses: true,
			Normalization:  "track",
			TargetPeakDB:   -3.0,
			SampleRate:     44100,
			Channels:       1,
		},
		Dynamics: Dynamics{
			CompressorThreshold: -20.0,
			CompressorRatio:     4.0,
			CompressorAttack:    5.0,
			CompressorRelease:   50.0,
			CompressorMakeup:    3.0,
			EqualizerMid:        1.5,
			EqualizerHigh:       1.0,
			EqualizerLowHz:      250.0,
			EqualizerHighHz:     4000.0,
		},
		Output: Output{
			Format: "wav",
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ttssync/config.toml")
}

// Load parses and validates a configuration file. An empty path falls back
// to the default location; a missing file yields the defaults. The API key
// falls back to the OPENAI_API_KEY environment variable when the file does
// not set it.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, err
	}
	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if cfg.TTS.APIKey == "" {
		cfg.TTS.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// Validate checks the configuration for values the pipeline cannot work
// with.
func (c *Config) Validate() error {
	switch c.Sync.Algorithm {
	case "linear", "fir", "sinc":
	default:
		return fmt.Errorf("config: unknown tempo algorithm %q", c.Sync.Algorithm)
	}
	switch c.Sync.Normalization {
	case "track", "segment", "none":
	default:
		return fmt.Errorf("config: normalization must be track, segment or none, got %q",
			c.Sync.Normalization)
	}
	switch strings.ToLower(c.Output.Format) {
	case "wav", "mp3", "ogg":
	default:
		return fmt.Errorf("config: unknown output format %q", c.Output.Format)
	}
	if c.Sync.SampleRate <= 0 {
		return fmt.Errorf("config: sample rate must be positive, got %d", c.Sync.SampleRate)
	}
	if c.Sync.Channels <= 0 {
		return fmt.Errorf("config: channels must be positive, got %d", c.Sync.Channels)
	}
	if c.TTS.Speed != 0 && (c.TTS.Speed < 0.25 || c.TTS.Speed > 4.0) {
		return fmt.Errorf("config: tts speed %v outside [0.25, 4.0]", c.TTS.Speed)
	}
	if c.Dynamics.CompressorEnabled && c.Dynamics.CompressorRatio <= 1.0 {
		return fmt.Errorf("config: compressor ratio must exceed 1.0, got %v",
			c.Dynamics.CompressorRatio)
	}
	if c.Dynamics.EqualizerEnabled && c.Dynamics.EqualizerLowHz >= c.Dynamics.EqualizerHighHz {
		return fmt.Errorf("config: equalizer low crossover %vHz must sit below high crossover %vHz",
			c.Dynamics.EqualizerLowHz, c.Dynamics.EqualizerHighHz)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

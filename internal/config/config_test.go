package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sync.Algorithm != "sinc" {
		t.Errorf("Algorithm = %q, want default sinc", cfg.Sync.Algorithm)
	}
	if cfg.Sync.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", cfg.Sync.SampleRate)
	}
	if !cfg.Sync.PreservePauses {
		t.Error("PreservePauses should default to true")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[tts]
api_key = "sk-test"
voice = "nova"

[sync]
algorithm = "linear"
normalization = "segment"

[output]
format = "mp3"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TTS.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", cfg.TTS.APIKey)
	}
	if cfg.TTS.Voice != "nova" {
		t.Errorf("Voice = %q", cfg.TTS.Voice)
	}
	if cfg.TTS.Model != "tts-1" {
		t.Errorf("Model = %q, want default kept", cfg.TTS.Model)
	}
	if cfg.Sync.Algorithm != "linear" {
		t.Errorf("Algorithm = %q", cfg.Sync.Algorithm)
	}
	if cfg.Sync.Normalization != "segment" {
		t.Errorf("Normalization = %q", cfg.Sync.Normalization)
	}
	if cfg.Output.Format != "mp3" {
		t.Errorf("Format = %q", cfg.Output.Format)
	}
}

func TestLoadAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TTS.APIKey != "sk-env" {
		t.Errorf("APIKey = %q, want value from environment", cfg.TTS.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults pass",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad algorithm",
			mutate:  func(c *Config) { c.Sync.Algorithm = "cubic" },
			wantErr: "algorithm",
		},
		{
			name:    "bad normalization",
			mutate:  func(c *Config) { c.Sync.Normalization = "loud" },
			wantErr: "normalization",
		},
		{
			name:    "bad output format",
			mutate:  func(c *Config) { c.Output.Format = "flac" },
			wantErr: "output format",
		},
		{
			name:    "zero sample rate",
			mutate:  func(c *Config) { c.Sync.SampleRate = 0 },
			wantErr: "sample rate",
		},
		{
			name:    "tts speed out of range",
			mutate:  func(c *Config) { c.TTS.Speed = 5.0 },
			wantErr: "speed",
		},
		{
			name: "compressor ratio too low",
			mutate: func(c *Config) {
				c.Dynamics.CompressorEnabled = true
				c.Dynamics.CompressorRatio = 1.0
			},
			wantErr: "ratio",
		},
		{
			name: "equalizer crossovers inverted",
			mutate: func(c *Config) {
				c.Dynamics.EqualizerEnabled = true
				c.Dynamics.EqualizerLowHz = 5000
			},
			wantErr: "crossover",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

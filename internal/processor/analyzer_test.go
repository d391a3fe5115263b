package processor

import (
	"errors"
	"math"
	"testing"

	"github.com/region23/tts-sync/internal/audio"
	"github.com/region23/tts-sync/internal/track"
)

func TestAnalyzeEmptyBuffer(t *testing.T) {
	_, err := Analyze(audio.NewBuffer(nil, 44100, 1))
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Analyze(empty) error = %v, want ErrInvalidInput", err)
	}
}

func TestAnalyzeTone(t *testing.T) {
	buf := generateTestBuffer(t, testBufferOptions{
		DurationSecs: 2.0,
		ToneAmp:      0.5,
	})

	analysis, err := Analyze(buf)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if math.Abs(analysis.Duration-2.0) > 0.001 {
		t.Errorf("Duration = %v, want 2.0", analysis.Duration)
	}
	if math.Abs(analysis.Peak-0.5) > 0.001 {
		t.Errorf("Peak = %v, want 0.5", analysis.Peak)
	}
	// Sine RMS is amplitude over sqrt(2).
	wantRMS := 0.5 / math.Sqrt2
	if math.Abs(analysis.RMS-wantRMS) > 0.001 {
		t.Errorf("RMS = %v, want %v", analysis.RMS, wantRMS)
	}
	if len(analysis.Silences) != 0 {
		t.Errorf("Silences = %d, want 0 for continuous tone", len(analysis.Silences))
	}
	if analysis.SpeechRate != defaultSpeechRate {
		t.Errorf("SpeechRate = %v, want default %v without silences",
			analysis.SpeechRate, defaultSpeechRate)
	}
}

func TestAnalyzeDetectsSilenceGap(t *testing.T) {
	opts := testBufferOptions{DurationSecs: 2.0}
	opts.SilenceGaps = append(opts.SilenceGaps, struct {
		Start    float64
		Duration float64
	}{Start: 0.8, Duration: 0.4})
	buf := generateTestBuffer(t, opts)

	analysis, err := Analyze(buf)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(analysis.Silences) != 1 {
		t.Fatalf("Silences = %d, want 1", len(analysis.Silences))
	}
	s := analysis.Silences[0]
	if math.Abs(s.Start-0.8) > 0.02 || math.Abs(s.End-1.2) > 0.02 {
		t.Errorf("silence = [%v, %v], want roughly [0.8, 1.2]", s.Start, s.End)
	}
	// Speech rate from one silence over two seconds: (1+1)*2/2.
	if math.Abs(analysis.SpeechRate-2.0) > 0.001 {
		t.Errorf("SpeechRate = %v, want 2.0", analysis.SpeechRate)
	}
}

func TestAnalyzeIgnoresShortGap(t *testing.T) {
	opts := testBufferOptions{DurationSecs: 2.0}
	opts.SilenceGaps = append(opts.SilenceGaps, struct {
		Start    float64
		Duration float64
	}{Start: 1.0, Duration: 0.05})
	buf := generateTestBuffer(t, opts)

	analysis, err := Analyze(buf)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(analysis.Silences) != 0 {
		t.Errorf("Silences = %d, want 0 for gap under the minimum duration",
			len(analysis.Silences))
	}
}

func TestAnalyzeAllZeroBuffer(t *testing.T) {
	buf := audio.NewBuffer(make([]float64, 44100), 44100, 1)

	analysis, err := Analyze(buf)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if analysis.RMS != 0 {
		t.Errorf("RMS = %v, want 0", analysis.RMS)
	}
	if len(analysis.Silences) != 1 {
		t.Fatalf("Silences = %d, want exactly 1 spanning the buffer", len(analysis.Silences))
	}
	s := analysis.Silences[0]
	if s.Start != 0 || math.Abs(s.End-1.0) > 1e-9 {
		t.Errorf("silence = [%v, %v], want [0, 1.0]", s.Start, s.End)
	}
}

func TestAnalyzeLeadingAndTrailingSilence(t *testing.T) {
	// 100ms zeros, 1s of tone, 100ms zeros.
	const rate = 44100
	samples := make([]float64, 0, rate/10*2+rate)
	samples = append(samples, make([]float64, rate/10)...)
	for i := 0; i < rate; i++ {
		samples = append(samples, 0.5*math.Sin(2*math.Pi*440*float64(i)/rate))
	}
	samples = append(samples, make([]float64, rate/10)...)
	buf := audio.NewBuffer(samples, rate, 1)

	analysis, err := Analyze(buf)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(analysis.Silences) != 2 {
		t.Fatalf("Silences = %d, want exactly 2", len(analysis.Silences))
	}
	if analysis.Silences[0].Start != 0 || math.Abs(analysis.Silences[0].End-0.1) > 0.001 {
		t.Errorf("leading silence = [%v, %v], want [0, 0.1]",
			analysis.Silences[0].Start, analysis.Silences[0].End)
	}
	wantStart := buf.Duration() - 0.1
	if math.Abs(analysis.Silences[1].Start-wantStart) > 0.001 ||
		math.Abs(analysis.Silences[1].End-buf.Duration()) > 1e-9 {
		t.Errorf("trailing silence = [%v, %v], want [%v, %v]",
			analysis.Silences[1].Start, analysis.Silences[1].End,
			wantStart, buf.Duration())
	}
}

func TestSpeechDuration(t *testing.T) {
	a := &Analysis{
		Duration: 3.0,
		Silences: []SilenceRange{
			{Start: 0.5, End: 1.0},
			{Start: 2.0, End: 2.5},
		},
	}
	if got := a.SpeechDuration(); math.Abs(got-2.0) > 1e-9 {
		t.Errorf("SpeechDuration() = %v, want 2.0", got)
	}
}

func TestAnalyzeSegment(t *testing.T) {
	tests := []struct {
		name        string
		audioSecs   float64
		targetSecs  float64
		gaps        int
		wantStretch float64
		wantSplit   bool
	}{
		{
			name:        "comfortable stretch",
			audioSecs:   2.0,
			targetSecs:  2.2,
			gaps:        0,
			wantStretch: 1.1,
			wantSplit:   false,
		},
		{
			name:        "clamped slow",
			audioSecs:   2.0,
			targetSecs:  8.0,
			gaps:        0,
			wantStretch: maxStretchFactor,
			wantSplit:   false,
		},
		{
			name:        "clamped fast",
			audioSecs:   4.0,
			targetSecs:  1.0,
			gaps:        0,
			wantStretch: minStretchFactor,
			wantSplit:   false,
		},
		{
			name:        "uncomfortable without silences stays whole",
			audioSecs:   4.0,
			targetSecs:  2.0,
			gaps:        1,
			wantStretch: minStretchFactor,
			wantSplit:   false,
		},
		{
			name:        "uncomfortable with silences splits",
			audioSecs:   4.0,
			targetSecs:  2.0,
			gaps:        2,
			wantStretch: minStretchFactor,
			wantSplit:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testBufferOptions{DurationSecs: tt.audioSecs}
			for g := 0; g < tt.gaps; g++ {
				opts.SilenceGaps = append(opts.SilenceGaps, struct {
					Start    float64
					Duration float64
				}{Start: float64(g+1) * tt.audioSecs / float64(tt.gaps+1), Duration: 0.3})
			}
			seg := track.NewSegment(generateTestBuffer(t, opts), 0, tt.targetSecs, "test")

			sa, err := AnalyzeSegment(seg)
			if err != nil {
				t.Fatalf("AnalyzeSegment() error = %v", err)
			}
			if math.Abs(sa.RecommendedStretch-tt.wantStretch) > 0.01 {
				t.Errorf("RecommendedStretch = %v, want %v",
					sa.RecommendedStretch, tt.wantStretch)
			}
			if sa.ShouldSplit != tt.wantSplit {
				t.Errorf("ShouldSplit = %v, want %v", sa.ShouldSplit, tt.wantSplit)
			}
		})
	}
}

func TestAnalyzeSegmentRejectsZeroTarget(t *testing.T) {
	seg := track.NewSegment(generateTestBuffer(t, testBufferOptions{}), 1.0, 1.0, "")
	if _, err := AnalyzeSegment(seg); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("AnalyzeSegment(zero window) error = %v, want ErrInvalidParameters", err)
	}
}

func TestSplitSegment(t *testing.T) {
	opts := testBufferOptions{DurationSecs: 3.0}
	opts.SilenceGaps = append(opts.SilenceGaps,
		struct {
			Start    float64
			Duration float64
		}{Start: 0.9, Duration: 0.3},
		struct {
			Start    float64
			Duration float64
		}{Start: 1.9, Duration: 0.3},
	)
	buf := generateTestBuffer(t, opts)
	seg := track.NewSegment(buf, 10.0, 13.0, "hello world")

	analysis, err := Analyze(buf)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	parts, err := SplitSegment(seg, analysis)
	if err != nil {
		t.Fatalf("SplitSegment() error = %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("parts = %d, want 3", len(parts))
	}

	totalSamples := 0
	for i, p := range parts {
		totalSamples += p.Audio.Len()
		if p.Text != "hello world" {
			t.Errorf("part %d text = %q, want original text on every part", i, p.Text)
		}
		if p.StartTime < 10.0 || p.EndTime > 13.0 {
			t.Errorf("part %d window [%v, %v] leaves original [10, 13]",
				i, p.StartTime, p.EndTime)
		}
		if i > 0 && p.StartTime != parts[i-1].EndTime {
			t.Errorf("part %d start %v != previous end %v",
				i, p.StartTime, parts[i-1].EndTime)
		}
	}
	if totalSamples != buf.Len() {
		t.Errorf("parts hold %d samples, want all %d of the original",
			totalSamples, buf.Len())
	}
}

func TestSplitSegmentWithoutSilences(t *testing.T) {
	buf := generateTestBuffer(t, testBufferOptions{DurationSecs: 1.0})
	seg := track.NewSegment(buf, 0, 1.0, "x")

	parts, err := SplitSegment(seg, &Analysis{Duration: 1.0})
	if err != nil {
		t.Fatalf("SplitSegment() error = %v", err)
	}
	if len(parts) != 1 || parts[0] != seg {
		t.Errorf("expected the original segment back unchanged")
	}
}

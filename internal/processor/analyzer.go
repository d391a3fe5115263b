package processor

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"github.com/region23/tts-sync/internal/audio"
	"github.com/region23/tts-sync/internal/track"
)

const (
	// silenceThresholdRatio scales the buffer RMS into the per-sample
	// silence threshold.
	silenceThresholdRatio = 0.1

	// minSilenceDuration is the shortest run of quiet samples reported as
	// a silence, in seconds.
	minSilenceDuration = 0.1

	// minStretchFactor and maxStretchFactor clamp the recommended stretch
	// so a single segment is never slowed below half speed or pushed past
	// double speed.
	minStretchFactor = 0.5
	maxStretchFactor = 2.0

	// splitLowerBound and splitUpperBound bracket the comfortable stretch
	// range. A segment whose raw stretch falls outside and which contains
	// more than one silence is better split than stretched.
	splitLowerBound = 0.7
	splitUpperBound = 1.3

	// defaultSpeechRate is reported for audio with no detected silences,
	// in syllables per second.
	defaultSpeechRate = 10.0
)

// SilenceRange is one detected quiet region, in seconds from buffer start.
type SilenceRange struct {
	Start float64
	End   float64
}

// Duration returns the silence length in seconds.
func (s SilenceRange) Duration() float64 {
	return s.End - s.Start
}

// Analysis summarizes one buffer: overall level, detected silences and the
// speech rate estimate built from them.
type Analysis struct {
	Duration   float64
	RMS        float64
	Peak       float64
	Silences   []SilenceRange
	SpeechRate float64
}

// SpeechDuration returns the buffer duration minus all detected silences.
func (a *Analysis) SpeechDuration() float64 {
	speech := a.Duration
	for _, s := range a.Silences {
		speech -= s.Duration()
	}
	if speech < 0 {
		return 0
	}
	return speech
}

// Analyze computes level statistics and silence regions for a buffer.
func Analyze(buf *audio.Buffer) (*Analysis, error) {
	if buf == nil || buf.IsEmpty() {
		return nil, fmt.Errorf("%w: cannot analyze empty buffer", ErrInvalidInput)
	}

	var sumSquares, peak float64
	for _, s := range buf.Samples {
		sumSquares += s * s
		if abs := math.Abs(s); abs > peak {
			peak = abs
		}
	}
	rms := math.Sqrt(sumSquares / float64(buf.Len()))

	analysis := &Analysis{
		Duration: buf.Duration(),
		RMS:      rms,
		Peak:     peak,
	}
	analysis.Silences = detectSilences(buf, rms*silenceThresholdRatio)
	analysis.SpeechRate = estimateSpeechRate(analysis)

	log.Debug("analyzed audio",
		"duration", analysis.Duration,
		"rms", rms,
		"peak", peak,
		"silences", len(analysis.Silences),
		"speech_rate", analysis.SpeechRate)

	return analysis, nil
}

// detectSilences scans for runs of samples whose magnitude stays below
// threshold for at least minSilenceDuration.
func detectSilences(buf *audio.Buffer, threshold float64) []SilenceRange {
	frameRate := float64(buf.SampleRate * buf.Channels)
	minSamples := int(minSilenceDuration * frameRate)
	if minSamples < 1 {
		minSamples = 1
	}

	var silences []SilenceRange
	// Inclusive comparison so a threshold of zero (an all-zero buffer)
	// still classifies every sample as silent.
	runStart := -1
	for i, s := range buf.Samples {
		if math.Abs(s) <= threshold {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 && i-runStart >= minSamples {
			silences = append(silences, SilenceRange{
				Start: float64(runStart) / frameRate,
				End:   float64(i) / frameRate,
			})
		}
		runStart = -1
	}
	if runStart >= 0 && buf.Len()-runStart >= minSamples {
		silences = append(silences, SilenceRange{
			Start: float64(runStart) / frameRate,
			End:   buf.Duration(),
		})
	}
	return silences
}

// estimateSpeechRate derives a rough syllables-per-second figure from the
// silence count: each silence separates roughly one spoken burst, and each
// burst is assumed to carry two syllables.
func estimateSpeechRate(a *Analysis) float64 {
	if len(a.Silences) == 0 || a.Duration <= 0 {
		return defaultSpeechRate
	}
	return float64(len(a.Silences)+1) * 2.0 / a.Duration
}

// SegmentAnalysis carries the per-segment stretch recommendation.
type SegmentAnalysis struct {
	Analysis           *Analysis
	CurrentDuration    float64
	TargetDuration     float64
	RecommendedStretch float64
	ShouldSplit        bool
}

// AnalyzeSegment analyzes a segment's audio against its subtitle-derived
// target duration. The recommended stretch is the target/current ratio
// clamped to [minStretchFactor, maxStretchFactor]; the split recommendation
// fires when the unclamped ratio is uncomfortable and the segment has more
// than one silence to split at.
func AnalyzeSegment(seg *track.Segment) (*SegmentAnalysis, error) {
	if seg == nil || seg.Audio == nil {
		return nil, fmt.Errorf("%w: nil segment", ErrInvalidInput)
	}
	target := seg.Duration()
	if target <= 0 {
		return nil, fmt.Errorf("%w: segment target duration %v must be positive",
			ErrInvalidParameters, target)
	}

	analysis, err := Analyze(seg.Audio)
	if err != nil {
		return nil, err
	}

	current := seg.Audio.Duration()
	raw := target / current
	stretch := raw
	if stretch < minStretchFactor {
		stretch = minStretchFactor
	}
	if stretch > maxStretchFactor {
		stretch = maxStretchFactor
	}

	return &SegmentAnalysis{
		Analysis:           analysis,
		CurrentDuration:    current,
		TargetDuration:     target,
		RecommendedStretch: stretch,
		ShouldSplit: len(analysis.Silences) > 1 &&
			(raw < splitLowerBound || raw > splitUpperBound),
	}, nil
}

// SplitSegment cuts a segment at the midpoint of each detected silence,
// returning sub-segments that partition the original audio. Start and end
// times are spread over the original subtitle window in proportion to each
// sub-segment's share of the audio, and the original text is carried on
// every sub-segment. A segment with no silences comes back whole.
func SplitSegment(seg *track.Segment, analysis *Analysis) ([]*track.Segment, error) {
	if seg == nil || seg.Audio == nil {
		return nil, fmt.Errorf("%w: nil segment", ErrInvalidInput)
	}
	if len(analysis.Silences) == 0 {
		return []*track.Segment{seg}, nil
	}

	buf := seg.Audio
	frameRate := float64(buf.SampleRate * buf.Channels)
	audioDuration := buf.Duration()

	// Cut points in samples, at each silence midpoint.
	cuts := make([]int, 0, len(analysis.Silences)+2)
	cuts = append(cuts, 0)
	for _, s := range analysis.Silences {
		mid := int((s.Start + s.End) / 2 * frameRate)
		if mid > cuts[len(cuts)-1] && mid < buf.Len() {
			cuts = append(cuts, mid)
		}
	}
	cuts = append(cuts, buf.Len())

	window := seg.Duration()
	parts := make([]*track.Segment, 0, len(cuts)-1)
	for i := 0; i+1 < len(cuts); i++ {
		lo, hi := cuts[i], cuts[i+1]
		if hi <= lo {
			continue
		}
		samples := make([]float64, hi-lo)
		copy(samples, buf.Samples[lo:hi])
		part := audio.NewBuffer(samples, buf.SampleRate, buf.Channels)

		startFrac := float64(lo) / frameRate / audioDuration
		endFrac := float64(hi) / frameRate / audioDuration
		parts = append(parts, track.NewSegment(part,
			seg.StartTime+startFrac*window,
			seg.StartTime+endFrac*window,
			seg.Text))
	}

	log.Debug("split segment at silences",
		"parts", len(parts),
		"silences", len(analysis.Silences),
		"text", seg.Text)

	return parts, nil
}

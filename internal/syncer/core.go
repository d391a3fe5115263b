// Package syncer drives the synchronization pipeline: synthesize speech
// per subtitle cue, fit each cue's audio into its subtitle window, and
// assemble a track whose total duration exactly matches the target.
package syncer

import (
	"context"
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"github.com/region23/tts-sync/internal/audio"
	"github.com/region23/tts-sync/internal/processor"
	"github.com/region23/tts-sync/internal/progress"
	"github.com/region23/tts-sync/internal/subtitle"
	"github.com/region23/tts-sync/internal/track"
	"github.com/region23/tts-sync/internal/tts"
)

// Normalization selects the loudness policy applied before the track is
// handed back.
type Normalization string

const (
	// NormalizeTrack applies one gain across all segments so the merged
	// peak hits the target, preserving relative levels.
	NormalizeTrack Normalization = "track"
	// NormalizeSegment normalizes every segment independently; quiet
	// segments come up further than a whole-track pass would bring them.
	NormalizeSegment Normalization = "segment"
	// NormalizeNone skips normalization.
	NormalizeNone Normalization = "none"
)

// ParseNormalization maps a config/CLI string to a Normalization.
func ParseNormalization(name string) (Normalization, error) {
	switch Normalization(name) {
	case NormalizeTrack, NormalizeSegment, NormalizeNone:
		return Normalization(name), nil
	default:
		return "", fmt.Errorf("unknown normalization policy %q", name)
	}
}

const (
	// durationTolerance is how far a cue's audio may miss its subtitle
	// window before a tempo adjustment is worth doing, in seconds.
	durationTolerance = 0.05

	// minGapDuration is the shortest inter-segment gap that gets an
	// explicit silence segment, in seconds.
	minGapDuration = 0.01
)

// Options configures a synchronization run.
type Options struct {
	SampleRate     int
	Channels       int
	Algorithm      processor.Algorithm
	PreservePauses bool
	Normalization  Normalization
	// TargetPeakDB is the normalization target, e.g. -3.0.
	TargetPeakDB float64

	// Optional post-processing applied to speech segments after tempo
	// adjustment. Nil disables the stage.
	Compressor *processor.CompressorSettings
	Equalizer  *processor.EqualizerSettings
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		SampleRate:     44100,
		Channels:       1,
		Algorithm:      processor.AlgorithmSinc,
		PreservePauses: true,
		Normalization:  NormalizeTrack,
		TargetPeakDB:   -3.0,
	}
}

// Core runs the synchronization pipeline. One Core instance serves one run
// at a time; the text-keyed speech cache is per-run state.
type Core struct {
	provider tts.Provider
	decoder  *audio.Decoder
	opts     Options
	tracker  *progress.Tracker
	report   *RunReport
}

// New creates a synchronization core. The tracker may be nil.
func New(provider tts.Provider, decoder *audio.Decoder, opts Options, tracker *progress.Tracker) *Core {
	if decoder == nil {
		decoder = &audio.Decoder{}
	}
	return &Core{
		provider: provider,
		decoder:  decoder,
		opts:     opts,
		tracker:  tracker,
	}
}

type cachedSpeech struct {
	raw []byte
	buf *audio.Buffer
}

// Synchronize runs the pipeline against a parsed subtitle timeline and an
// externally supplied target duration in seconds. The returned track spans
// exactly [0, targetDuration]. The context is honored between per-cue
// synthesis iterations; DSP stages run to completion once started.
func (c *Core) Synchronize(ctx context.Context, cues *subtitle.Track, targetDuration float64) (*track.Track, error) {
	c.tracker.Report(0, "Parsing subtitles")
	if cues == nil || cues.IsEmpty() {
		return nil, fmt.Errorf("%w: subtitle timeline is empty", ErrSynchronization)
	}
	if targetDuration <= 0 {
		return nil, fmt.Errorf("%w: target duration %v must be positive",
			ErrSynchronization, targetDuration)
	}
	c.report = &RunReport{
		TargetDuration: targetDuration,
		TotalCues:      cues.Len(),
	}

	c.tracker.Report(10, "Generating speech")
	speech, err := c.generateSpeech(ctx, cues)
	if err != nil {
		return nil, err
	}

	c.tracker.Report(50, "Adjusting segment durations")
	segments, err := c.adjustSegments(cues, speech)
	if err != nil {
		return nil, err
	}

	c.tracker.Report(70, "Assembling track")
	tr := c.assemble(segments, targetDuration)

	c.tracker.Report(80, "Materializing pauses")
	tr = c.materializeGaps(tr)

	c.tracker.Report(90, "Normalizing loudness")
	if c.opts.Normalization != NormalizeNone {
		c.normalize(tr)
	}

	c.tracker.Report(95, "Enforcing total duration")
	tr = c.enforceDuration(tr, targetDuration)

	c.tracker.Report(100, "Synchronization complete")
	return tr, nil
}

// generateSpeech synthesizes and decodes audio for every cue, deduplicating
// by exact text so repeated lines cost one request.
func (c *Core) generateSpeech(ctx context.Context, cues *subtitle.Track) ([]*cachedSpeech, error) {
	stage := c.tracker.Child(10, 50)
	cache := make(map[string]*cachedSpeech)
	result := make([]*cachedSpeech, 0, cues.Len())

	log.Info("generating speech segments", "cues", cues.Len())

	for i, cue := range cues.Cues {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("synthesis cancelled: %w", err)
		}
		stage.Report(float64(i)/float64(cues.Len())*100,
			fmt.Sprintf("Generating speech %d/%d", i+1, cues.Len()))

		if hit, ok := cache[cue.Text]; ok {
			log.Debug("speech cache hit", "cue", i+1, "text", cue.Text)
			result = append(result, hit)
			continue
		}

		raw, err := c.provider.Generate(ctx, cue.Text, cue.Duration())
		if err != nil {
			return nil, fmt.Errorf("synthesizing cue %d: %w", i+1, err)
		}
		if len(raw) < 100 {
			log.Warn("suspiciously small synthesized audio", "cue", i+1, "bytes", len(raw))
		}
		buf, err := c.decoder.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding synthesized audio for cue %d: %w", i+1, err)
		}
		// Providers answer at their native format; the track is laid out
		// in the configured one.
		buf = audio.Resample(buf, c.opts.SampleRate, c.opts.Channels)

		entry := &cachedSpeech{raw: raw, buf: buf}
		cache[cue.Text] = entry
		result = append(result, entry)
	}

	log.Info("speech generation complete", "cues", cues.Len(), "unique", len(cache))
	c.report.UniqueSynth = len(cache)
	return result, nil
}

// adjustSegments fits each cue's audio into its subtitle window. Small
// mismatches pass through untouched; awkward stretches with internal pauses
// are split at pause midpoints and each part fitted proportionally;
// everything else goes through pause-preserving adaptive adjustment.
// Recoverable analysis failures degrade to the plain fit path.
func (c *Core) adjustSegments(cues *subtitle.Track, speech []*cachedSpeech) ([]*track.Segment, error) {
	stage := c.tracker.Child(50, 70)
	segments := make([]*track.Segment, 0, len(speech))

	for i, cue := range cues.Cues {
		stage.Report(float64(i)/float64(len(speech))*100,
			fmt.Sprintf("Adjusting segment %d/%d", i+1, len(speech)))

		// Cache hits share a buffer; clone so per-segment processing
		// never aliases another segment's samples.
		seg := track.NewSegment(speech[i].buf.Clone(), cue.StartTime, cue.EndTime, cue.Text)
		seg.RawEncoded = speech[i].raw
		synthDuration := seg.Audio.Duration()

		adjusted, strategy, err := c.fitSegment(seg)
		if err != nil {
			return nil, fmt.Errorf("adjusting segment %d: %w", i+1, err)
		}

		stretch := 1.0
		if target := seg.Duration(); target > 0 {
			stretch = synthDuration / target
		}
		c.report.Cues = append(c.report.Cues, CueResult{
			Index:          i + 1,
			Text:           cue.Text,
			WindowStart:    cue.StartTime,
			WindowEnd:      cue.EndTime,
			SynthDuration:  synthDuration,
			FittedDuration: adjusted.Audio.Duration(),
			StretchFactor:  stretch,
			Strategy:       strategy,
		})

		adjusted, err = c.applyDynamics(adjusted)
		if err != nil {
			return nil, fmt.Errorf("processing segment %d: %w", i+1, err)
		}
		segments = append(segments, adjusted)
	}
	return segments, nil
}

func (c *Core) fitSegment(seg *track.Segment) (*track.Segment, Strategy, error) {
	target := seg.Duration()
	current := seg.Audio.Duration()

	if math.Abs(current-target) <= durationTolerance {
		log.Debug("segment close enough, skipping adjustment",
			"current", current, "target", target, "text", seg.Text)
		return seg, StrategyPassthrough, nil
	}

	analysis, err := processor.AnalyzeSegment(seg)
	if err != nil {
		// Analysis trouble is a quality concern, not a structural one;
		// fall back to fitting the whole buffer.
		log.Warn("segment analysis failed, fitting whole buffer",
			"error", err, "text", seg.Text)
		adjusted, err := c.fitWhole(seg, target)
		return adjusted, StrategyUniform, err
	}

	if analysis.ShouldSplit {
		adjusted, err := c.fitSplit(seg, analysis.Analysis, target)
		if err == nil {
			return adjusted, StrategySplit, nil
		}
		log.Warn("split adjustment failed, falling back to adaptive",
			"error", err, "text", seg.Text)
	}

	buf, err := processor.AdaptiveTempoAdjustment(seg.Audio, target, c.opts.Algorithm, c.opts.PreservePauses)
	if err != nil {
		return nil, "", err
	}
	return c.withAudio(seg, buf), StrategyAdaptive, nil
}

// fitSplit cuts the segment at its pause midpoints and fits every part to a
// share of the subtitle window proportional to its share of the original
// audio, so the parts re-concatenate to the full target duration.
func (c *Core) fitSplit(seg *track.Segment, analysis *processor.Analysis, target float64) (*track.Segment, error) {
	parts, err := processor.SplitSegment(seg, analysis)
	if err != nil {
		return nil, err
	}
	if len(parts) <= 1 {
		return c.fitWhole(seg, target)
	}

	total := 0.0
	for _, p := range parts {
		total += p.Audio.Duration()
	}

	merged := make([]float64, 0, seg.Audio.Len())
	for _, p := range parts {
		partTarget := p.Audio.Duration() / total * target
		fitted, err := processor.FitToDuration(p.Audio, partTarget, c.opts.Algorithm)
		if err != nil {
			return nil, err
		}
		merged = append(merged, fitted.Samples...)
	}

	log.Debug("fitted split segment",
		"parts", len(parts), "target", target, "text", seg.Text)

	buf := audio.NewBuffer(merged, seg.Audio.SampleRate, seg.Audio.Channels)
	return c.withAudio(seg, buf), nil
}

func (c *Core) fitWhole(seg *track.Segment, target float64) (*track.Segment, error) {
	buf, err := processor.FitToDuration(seg.Audio, target, c.opts.Algorithm)
	if err != nil {
		return nil, err
	}
	return c.withAudio(seg, buf), nil
}

func (c *Core) withAudio(seg *track.Segment, buf *audio.Buffer) *track.Segment {
	out := track.NewSegment(buf, seg.StartTime, seg.EndTime, seg.Text)
	out.RawEncoded = seg.RawEncoded
	return out
}

func (c *Core) applyDynamics(seg *track.Segment) (*track.Segment, error) {
	if c.opts.Compressor != nil {
		buf, err := processor.Compress(seg.Audio, *c.opts.Compressor)
		if err != nil {
			return nil, err
		}
		seg = c.withAudio(seg, buf)
	}
	if c.opts.Equalizer != nil {
		buf, err := processor.Equalize(seg.Audio, *c.opts.Equalizer)
		if err != nil {
			return nil, err
		}
		seg = c.withAudio(seg, buf)
	}
	return seg, nil
}

// assemble collects adjusted segments into a track in timeline order and
// truncates the final segment at the target duration.
func (c *Core) assemble(segments []*track.Segment, targetDuration float64) *track.Track {
	tr := track.NewTrack(c.opts.SampleRate, c.opts.Channels)
	for _, seg := range segments {
		tr.AddSegment(seg)
	}
	tr.SortByStartTime()

	if n := tr.Len(); n > 0 {
		if last := tr.Segments[n-1]; last.EndTime > targetDuration {
			c.truncateSegment(last, targetDuration)
		}
	}
	return tr
}

// truncateSegment moves the segment's end time back and drops the audio
// beyond it.
func (c *Core) truncateSegment(seg *track.Segment, end float64) {
	log.Warn("segment overruns target duration, truncating",
		"end", seg.EndTime, "target", end, "text", seg.Text)
	seg.EndTime = end
	keep := int((end - seg.StartTime) * float64(seg.Audio.SampleRate*seg.Audio.Channels))
	if keep < 0 {
		keep = 0
	}
	if keep < seg.Audio.Len() {
		seg.Audio = audio.NewBuffer(seg.Audio.Samples[:keep], seg.Audio.SampleRate, seg.Audio.Channels)
	}
}

// materializeGaps inserts explicit silence segments wherever the timeline
// leaves more than minGapDuration between consecutive segments, and before
// the first segment when it starts late, so the final merge spans from
// zero with real samples instead of implied silence.
func (c *Core) materializeGaps(tr *track.Track) *track.Track {
	if tr.IsEmpty() {
		return tr
	}

	out := track.NewTrack(tr.SampleRate, tr.Channels)
	prevEnd := 0.0
	for _, seg := range tr.Segments {
		if gap := seg.StartTime - prevEnd; gap > minGapDuration {
			out.AddSegment(track.NewSilenceSegment(prevEnd, seg.StartTime, tr.SampleRate, tr.Channels))
			log.Debug("materialized pause", "start", prevEnd, "duration", gap)
		}
		out.AddSegment(seg)
		if seg.EndTime > prevEnd {
			prevEnd = seg.EndTime
		}
	}
	return out
}

func (c *Core) normalize(tr *track.Track) {
	targetPeak := math.Pow(10, c.opts.TargetPeakDB/20)
	switch c.opts.Normalization {
	case NormalizeSegment:
		log.Debug("normalizing per segment", "target_peak", targetPeak)
		tr.NormalizeSegments(targetPeak)
	case NormalizeTrack:
		log.Debug("normalizing whole track", "target_peak", targetPeak)
		tr.NormalizeTrack(targetPeak)
	}
}

// enforceDuration makes the track span exactly [0, target]: segments that
// begin at or past the target are dropped, an overrunning final segment is
// truncated, and a trailing silence segment fills any shortfall.
func (c *Core) enforceDuration(tr *track.Track, target float64) *track.Track {
	out := track.NewTrack(tr.SampleRate, tr.Channels)
	for _, seg := range tr.Segments {
		if seg.StartTime >= target {
			log.Warn("dropping segment past target duration",
				"start", seg.StartTime, "target", target, "text", seg.Text)
			continue
		}
		out.AddSegment(seg)
	}

	n := out.Len()
	if n == 0 {
		out.AddSegment(track.NewSilenceSegment(0, target, out.SampleRate, out.Channels))
		return out
	}

	last := out.Segments[n-1]
	if last.EndTime > target {
		c.truncateSegment(last, target)
	}
	if last.EndTime < target {
		out.AddSegment(track.NewSilenceSegment(last.EndTime, target, out.SampleRate, out.Channels))
	}
	return out
}

package syncer

// Strategy names the fitting path a cue's audio went through.
type Strategy string

const (
	// StrategyPassthrough means the synthesized audio already fit the
	// subtitle window within tolerance.
	StrategyPassthrough Strategy = "passthrough"
	// StrategyAdaptive means pause-preserving adaptive tempo adjustment.
	StrategyAdaptive Strategy = "adaptive"
	// StrategySplit means the segment was cut at pause midpoints and each
	// part fitted proportionally.
	StrategySplit Strategy = "split"
	// StrategyUniform means a single whole-buffer tempo adjustment,
	// used when segment analysis was unavailable.
	StrategyUniform Strategy = "uniform"
)

// CueResult records how one subtitle cue's audio was fitted.
type CueResult struct {
	Index       int
	Text        string
	WindowStart float64
	WindowEnd   float64

	// SynthDuration is the duration of the raw synthesized audio,
	// FittedDuration the duration after tempo adjustment, in seconds.
	SynthDuration  float64
	FittedDuration float64

	// StretchFactor is synthesized over target duration; above 1 the
	// speech was sped up, below 1 slowed down.
	StretchFactor float64

	Strategy Strategy
}

// RunReport summarizes a completed synchronization run.
type RunReport struct {
	TargetDuration float64
	TotalCues      int
	UniqueSynth    int
	Cues           []CueResult
}

// Report returns the report of the most recent Synchronize call, or nil
// if no run has completed the adjustment stage yet.
func (c *Core) Report() *RunReport {
	return c.report
}

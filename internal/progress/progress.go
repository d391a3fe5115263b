// Package progress reports pipeline completion to an external sink.
package progress

// Func receives progress updates: percent runs 0 to 100, status is a short
// human-readable stage label.
type Func func(percent float64, status string)

// Tracker forwards clamped progress updates to a sink. A nil tracker or a
// tracker without a sink swallows updates, so callers never need to guard
// their reporting.
type Tracker struct {
	sink Func
	// sub-range mapped onto the parent scale
	lo, hi float64
}

// NewTracker wraps a sink covering the full 0-100 range. The sink may be
// nil.
func NewTracker(sink Func) *Tracker {
	return &Tracker{sink: sink, lo: 0, hi: 100}
}

// Report sends one update. Percent is clamped to [0, 100] before being
// scaled into the tracker's range.
func (t *Tracker) Report(percent float64, status string) {
	if t == nil || t.sink == nil {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	t.sink(t.lo+(t.hi-t.lo)*percent/100, status)
}

// Child returns a tracker whose 0-100 range maps onto [lo, hi] of this
// tracker's own range, for stages that drive a loop of their own.
func (t *Tracker) Child(lo, hi float64) *Tracker {
	if t == nil {
		return nil
	}
	span := t.hi - t.lo
	return &Tracker{
		sink: t.sink,
		lo:   t.lo + span*lo/100,
		hi:   t.lo + span*hi/100,
	}
}

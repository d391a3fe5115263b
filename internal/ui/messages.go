package ui

import (
	"github.com/region23/tts-sync/internal/syncer"
)

// ProgressMsg carries a progress update from the synchronization pipeline
type ProgressMsg struct {
	Percent float64 // 0.0 to 100.0
	Status  string  // Stage description, e.g. "Generating speech 3/12"
}

// RunCompleteMsg signals that the synchronization run has finished
type RunCompleteMsg struct {
	OutputPath    string
	FinalDuration float64
	Report        *syncer.RunReport
	Err           error
}

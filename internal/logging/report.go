// Package logging handles generation of synchronization reports for completed runs

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/region23/tts-sync/internal/syncer"
)

// ============================================================================
// Stretch Interpretation
// ============================================================================

// interpretStretch describes how audible a tempo adjustment is likely to be.
// The factor is synthesized duration over the subtitle window: above 1 the
// speech was sped up, below 1 slowed down. Interpolation-based tempo change
// shifts pitch along with speed, so the further from 1.0 the more noticeable
// the result.
//
// Reference points for speech:
// - 0.9-1.1: transparent for most listeners
// - 0.8-1.25: audibly different pacing, still intelligible
// - beyond the 0.5/2.0 clamp: the adjuster refuses and splits instead
func interpretStretch(factor float64) string {
	switch {
	case factor <= 0:
		return ""
	case factor < 0.6:
		return "heavy slowdown, likely audible"
	case factor < 0.9:
		return "moderate slowdown"
	case factor <= 1.1:
		return "near natural pacing"
	case factor <= 1.4:
		return "moderate speedup"
	default:
		return "heavy speedup, likely audible"
	}
}

// =============================================================================
// Report Section Formatting Helpers
// =============================================================================

// writeSection writes a section header with title and dashed underline.
// The underline length matches the title length.
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// channelName returns a human-readable channel name
func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%d channels", channels)
	}
}

// truncateText shortens cue text for single-line display.
func truncateText(text string, max int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) <= max {
		return text
	}
	if max <= 3 {
		return text[:max]
	}
	return text[:max-3] + "..."
}

// ReportData contains all the information needed to generate a synchronization report
type ReportData struct {
	SubtitlePath  string
	OutputPath    string
	StartTime     time.Time
	EndTime       time.Time
	SynthesisTime time.Duration
	FittingTime   time.Duration
	SampleRate    int
	Channels      int
	FinalDuration float64 // Duration of the written track in seconds
	Algorithm     string
	Normalization string
	Run           *syncer.RunReport
}

// GenerateReport creates a detailed synchronization report and saves it
// alongside the output file. The report filename will be <output>.log
//
// Report structure:
// 1. Header - file info and timestamp
// 2. Processing Summary - stage timings
// 3. Synchronization Settings - algorithm and policies
// 4. Cue Adjustments - per-cue table with interpretations
// 5. Timeline - target vs final duration
func GenerateReport(data ReportData) error {
	logPath := strings.TrimSuffix(data.OutputPath, filepath.Ext(data.OutputPath)) + ".log"

	f, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	WriteReport(f, data)
	return nil
}

// WriteReport writes the full report to w. GenerateReport uses it for the
// log file; console mode writes the same report to stdout.
func WriteReport(w io.Writer, data ReportData) {
	writeReportHeader(w, data)
	writeProcessingSummary(w, data)
	writeSettings(w, data)
	if data.Run != nil {
		writeCueTable(w, data.Run)
		writeTimeline(w, data)
	}
}

// writeReportHeader outputs the report header with file info and timestamp.
func writeReportHeader(w io.Writer, data ReportData) {
	fmt.Fprintln(w, "TTS Sync Report")
	fmt.Fprintln(w, "===============")
	fmt.Fprintf(w, "Subtitles: %s\n", filepath.Base(data.SubtitlePath))
	fmt.Fprintf(w, "Output:    %s\n", filepath.Base(data.OutputPath))
	fmt.Fprintf(w, "Processed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Audio:     %d Hz %s\n", data.SampleRate, channelName(data.Channels))
	fmt.Fprintln(w, "")
}

// writeProcessingSummary outputs the stage timing summary.
func writeProcessingSummary(w io.Writer, data ReportData) {
	writeSection(w, "Processing Summary")

	fmt.Fprintf(w, "Synthesis:  %s\n", formatDuration(data.SynthesisTime))
	fmt.Fprintf(w, "Fitting:    %s\n", formatDuration(data.FittingTime))

	totalTime := data.EndTime.Sub(data.StartTime)
	fmt.Fprintf(w, "Total:      %s", formatDuration(totalTime))

	if data.FinalDuration > 0 && totalTime > 0 {
		audioDuration := time.Duration(data.FinalDuration * float64(time.Second))
		rtf := float64(audioDuration) / float64(totalTime)
		fmt.Fprintf(w, " (%.1fx real-time)", rtf)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "")
}

// writeSettings outputs the synchronization settings section.
func writeSettings(w io.Writer, data ReportData) {
	writeSection(w, "Synchronization Settings")
	fmt.Fprintf(w, "Algorithm:     %s\n", data.Algorithm)
	fmt.Fprintf(w, "Normalization: %s\n", data.Normalization)
	if data.Run != nil {
		fmt.Fprintf(w, "Cues:          %d (%d unique synthesized)\n",
			data.Run.TotalCues, data.Run.UniqueSynth)
	}
	fmt.Fprintln(w, "")
}

// writeCueTable outputs the per-cue adjustment table.
func writeCueTable(w io.Writer, run *syncer.RunReport) {
	writeSection(w, "Cue Adjustments")

	table := NewCueTable()
	for _, cue := range run.Cues {
		table.AddRow(fmt.Sprintf("Cue %d", cue.Index),
			[]string{
				formatWindow(cue.WindowStart, cue.WindowEnd),
				formatSeconds(cue.SynthDuration, 2),
				formatSeconds(cue.FittedDuration, 2),
				formatStretch(cue.StretchFactor),
				string(cue.Strategy),
			},
			interpretStretch(cue.StretchFactor))
	}
	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")

	// Cue text legend under the table so long lines don't break alignment.
	for _, cue := range run.Cues {
		fmt.Fprintf(w, "Cue %d: %s\n", cue.Index, truncateText(cue.Text, 70))
	}
	fmt.Fprintln(w, "")
}

// writeTimeline outputs the target vs final duration comparison.
func writeTimeline(w io.Writer, data ReportData) {
	writeSection(w, "Timeline")
	fmt.Fprintf(w, "Target duration: %s\n", formatSeconds(data.Run.TargetDuration, 3))
	fmt.Fprintf(w, "Final duration:  %s\n", formatSeconds(data.FinalDuration, 3))
	fmt.Fprintf(w, "Deviation:       %s\n",
		formatSignedSeconds(data.FinalDuration-data.Run.TargetDuration, 3))
}

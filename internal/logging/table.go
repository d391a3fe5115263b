// Package logging generates synchronization reports for completed runs.
// This file contains reusable table formatting infrastructure for the
// per-cue adjustment table.

package logging

import (
	"fmt"
	"math"
	"strings"
)

// CueRow represents a single row in the adjustment table. Values are
// pre-formatted strings so mixed formatting (durations, ratios) lines up.
type CueRow struct {
	Label          string   // Row label, e.g., "Cue 3"
	Values         []string // One value per column
	Interpretation string   // Optional interpretation text (only shown if non-empty)
}

// CueTable formats aligned columns for the per-cue adjustment report.
// Handles variable column widths, missing values, and an optional
// interpretation column.
type CueTable struct {
	Headers []string // Column headers, e.g., ["Window", "Speech", "Fitted", "Stretch"]
	Rows    []CueRow
}

// NewCueTable creates a table with the standard adjustment columns.
func NewCueTable() *CueTable {
	return &CueTable{
		Headers: []string{"Window", "Speech", "Fitted", "Stretch", "Strategy"},
		Rows:    make([]CueRow, 0),
	}
}

// AddRow adds a row with pre-formatted values.
func (t *CueTable) AddRow(label string, values []string, interpretation string) {
	t.Rows = append(t.Rows, CueRow{
		Label:          label,
		Values:         values,
		Interpretation: interpretation,
	})
}

// String renders the table with aligned columns.
// - Labels are left-aligned
// - Values are right-aligned within their column
// - Interpretation column only shown if any row has one
func (t *CueTable) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	hasInterpretation := false
	for _, row := range t.Rows {
		if row.Interpretation != "" {
			hasInterpretation = true
			break
		}
	}

	labelWidth := 0
	for _, row := range t.Rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
	}

	// Value column widths start at the header width and grow to fit.
	valueWidths := make([]int, len(t.Headers))
	for i, header := range t.Headers {
		valueWidths[i] = len(header)
	}
	for _, row := range t.Rows {
		for i, val := range row.Values {
			if i < len(valueWidths) && len(val) > valueWidths[i] {
				valueWidths[i] = len(val)
			}
		}
	}

	var sb strings.Builder

	// Header row
	sb.WriteString(strings.Repeat(" ", labelWidth+2))
	for i, header := range t.Headers {
		sb.WriteString(fmt.Sprintf("%*s  ", valueWidths[i], header))
	}
	if hasInterpretation {
		sb.WriteString("Interpretation")
	}
	sb.WriteString("\n")

	// Data rows
	for _, row := range t.Rows {
		sb.WriteString(fmt.Sprintf("%-*s  ", labelWidth, row.Label))

		for i := 0; i < len(t.Headers); i++ {
			val := MissingValue
			if i < len(row.Values) && row.Values[i] != "" {
				val = row.Values[i]
			}
			sb.WriteString(fmt.Sprintf("%*s  ", valueWidths[i], val))
		}

		if hasInterpretation {
			sb.WriteString(row.Interpretation)
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

// =============================================================================
// Value Formatting Helpers
// =============================================================================

// MissingValue is the placeholder for unavailable measurements
const MissingValue = "-"

// formatSeconds formats a duration in seconds with the given precision.
// NaN/Inf display as MissingValue.
func formatSeconds(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	format := fmt.Sprintf("%%.%dfs", decimals)
	return fmt.Sprintf(format, value)
}

// formatStretch formats a stretch factor as a multiplier, e.g. "1.23x".
func formatStretch(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return MissingValue
	}
	return fmt.Sprintf("%.2fx", value)
}

// formatWindow formats a subtitle window as "start-end" in seconds.
func formatWindow(start, end float64) string {
	return fmt.Sprintf("%.2f-%.2f", start, end)
}

// formatSignedSeconds formats a delta with an explicit sign, e.g. "+0.35s".
func formatSignedSeconds(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	format := fmt.Sprintf("%%+.%dfs", decimals)
	return fmt.Sprintf(format, value)
}

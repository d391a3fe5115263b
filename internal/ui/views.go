package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/region23/tts-sync/internal/syncer"
)

// renderProcessingView renders the main progress view
func renderProcessingView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")
	b.WriteString(renderStageBox(m))
	b.WriteString("\n")

	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#005FAF")).
		Render("TTS Sync 🎬 - Subtitle-Timed Speech Synthesis")

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Italic(true).
		Render(fmt.Sprintf("%s → %s",
			filepath.Base(m.SubtitlePath), filepath.Base(m.OutputPath)))

	return title + "\n" + subtitle
}

// renderStageBox renders the current stage with a progress bar
func renderStageBox(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#005FAF")).
		Padding(0, 1).
		Width(60)

	var content strings.Builder

	content.WriteString(m.Status)
	content.WriteString("\n")
	content.WriteString(renderProgressBar(m.Percent/100, 40))
	content.WriteString("\n\n")

	elapsed := m.Elapsed.Seconds()
	var remaining float64
	if m.Percent > 0 {
		remaining = (elapsed/(m.Percent/100) - elapsed)
	}
	content.WriteString(fmt.Sprintf("⏱  Elapsed: %.1fs | Remaining: ~%.1fs", elapsed, remaining))

	return box.Render(content.String())
}

// renderProgressBar renders a progress bar
func renderProgressBar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))
	empty := width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	percentage := int(progress * 100)

	return fmt.Sprintf("%s %d%%", bar, percentage)
}

// renderCompletionSummary renders the final completion or error summary
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	if m.Err != nil {
		header := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#A40000")).
			Render("✗ Synchronization Failed")
		b.WriteString(header)
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("   Error: %v\n", m.Err))
		return b.String()
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00AA00")).
		Render("✨ Synchronization Complete!")
	b.WriteString(header)
	b.WriteString("\n\n")

	icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")
	b.WriteString(fmt.Sprintf(" %s %s → %s\n",
		icon, filepath.Base(m.SubtitlePath), filepath.Base(m.OutputPath)))

	if m.Report != nil {
		b.WriteString(fmt.Sprintf("   Cues: %d (%d unique synthesized) | Target: %.2fs | Written: %.2fs\n",
			m.Report.TotalCues, m.Report.UniqueSynth, m.Report.TargetDuration, m.FinalDuration))
		b.WriteString(renderStrategyBreakdown(m.Report))
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", 60))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Track matches the subtitle timeline in %.1fs ✓\n", m.Elapsed.Seconds()))

	return b.String()
}

// renderStrategyBreakdown summarizes which fitting paths the cues took
func renderStrategyBreakdown(report *syncer.RunReport) string {
	counts := make(map[syncer.Strategy]int)
	for _, cue := range report.Cues {
		counts[cue.Strategy]++
	}

	order := []syncer.Strategy{
		syncer.StrategyPassthrough,
		syncer.StrategyAdaptive,
		syncer.StrategySplit,
		syncer.StrategyUniform,
	}

	var parts []string
	for _, s := range order {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, s))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("   Fitting: %s\n", strings.Join(parts, ", "))
}

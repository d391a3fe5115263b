// Package ui provides the Bubbletea terminal user interface for tts-sync
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/region23/tts-sync/internal/syncer"
)

// Model is the Bubbletea model for a single synchronization run
type Model struct {
	SubtitlePath string
	OutputPath   string

	// Progress tracking (percentage-based)
	Percent   float64 // 0.0 to 100.0
	Status    string
	StartTime time.Time
	Elapsed   time.Duration

	// Completion state
	Done          bool
	Err           error
	FinalDuration float64
	Report        *syncer.RunReport

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a new UI model for one subtitle file. Progress arrives
// from the pipeline goroutine via Program.Send.
func NewModel(subtitlePath, outputPath string) Model {
	return Model{
		SubtitlePath: subtitlePath,
		OutputPath:   outputPath,
		Status:       "Starting",
		StartTime:    time.Now(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case ProgressMsg:
		m.Percent = msg.Percent
		m.Status = msg.Status
		m.Elapsed = time.Since(m.StartTime)
		return m, nil

	case RunCompleteMsg:
		m.Done = true
		m.Err = msg.Err
		m.OutputPath = msg.OutputPath
		m.FinalDuration = msg.FinalDuration
		m.Report = msg.Report
		m.Elapsed = time.Since(m.StartTime)
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.Done {
		return renderCompletionSummary(m)
	}
	return renderProcessingView(m)
}

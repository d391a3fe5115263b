package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/region23/tts-sync/internal/syncer"
)

func TestModelInitHasNoPendingCommand(t *testing.T) {
	m := NewModel("episode.vtt", "episode.wav")
	if cmd := m.Init(); cmd != nil {
		t.Error("Init() returned a command, want nil")
	}
}

func TestModelProgressUpdates(t *testing.T) {
	m := NewModel("episode.vtt", "episode.wav")

	updated, cmd := m.Update(ProgressMsg{Percent: 50, Status: "Synthesizing speech"})
	if cmd != nil {
		t.Error("progress update returned a command, want nil")
	}
	m = updated.(Model)
	if m.Percent != 50 {
		t.Errorf("Percent = %v, want 50", m.Percent)
	}
	if m.Status != "Synthesizing speech" {
		t.Errorf("Status = %q, want %q", m.Status, "Synthesizing speech")
	}
	if m.Done {
		t.Error("Done before completion message")
	}
}

func TestModelRunCompleteQuits(t *testing.T) {
	m := NewModel("episode.vtt", "episode.wav")

	updated, cmd := m.Update(RunCompleteMsg{
		OutputPath:    "episode.wav",
		FinalDuration: 90.5,
		Report:        &syncer.RunReport{TotalCues: 3},
	})
	if cmd == nil {
		t.Fatal("completion returned no command, want tea.Quit")
	}
	if msg, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("completion cmd message = %T, want tea.QuitMsg", msg)
	}
	m = updated.(Model)
	if !m.Done {
		t.Error("Done = false after completion")
	}
	if m.FinalDuration != 90.5 {
		t.Errorf("FinalDuration = %v, want 90.5", m.FinalDuration)
	}
	if m.Report == nil || m.Report.TotalCues != 3 {
		t.Errorf("Report = %+v, want 3 cues", m.Report)
	}
}

func TestModelQuitKeys(t *testing.T) {
	m := NewModel("episode.vtt", "episode.wav")

	for _, key := range []string{"q", "ctrl+c"} {
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		if key == "ctrl+c" {
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		}
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Errorf("key %q returned no command, want tea.Quit", key)
		}
	}
}

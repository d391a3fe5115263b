package track

import (
	"math"
	"testing"

	"github.com/region23/tts-sync/internal/audio"
)

func constantBuffer(value float64, n, sampleRate, channels int) *audio.Buffer {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = value
	}
	return audio.NewBuffer(samples, sampleRate, channels)
}

func TestMergeEmptyTrack(t *testing.T) {
	tr := NewTrack(44100, 1)
	merged := tr.Merge()
	if !merged.IsEmpty() {
		t.Errorf("expected empty buffer, got %d samples", merged.Len())
	}
	if merged.SampleRate != 44100 || merged.Channels != 1 {
		t.Errorf("merged buffer lost sample format: rate=%d channels=%d",
			merged.SampleRate, merged.Channels)
	}
}

func TestMergePlacesSegmentsAtOffsets(t *testing.T) {
	tr := NewTrack(100, 1)
	tr.AddSegment(NewSegment(constantBuffer(0.5, 100, 100, 1), 0.0, 1.0, "a"))
	tr.AddSegment(NewSegment(constantBuffer(0.25, 100, 100, 1), 2.0, 3.0, "b"))

	merged := tr.Merge()
	if merged.Len() != 300 {
		t.Fatalf("expected 300 samples for 3s span at 100Hz, got %d", merged.Len())
	}
	if merged.Samples[50] != 0.5 {
		t.Errorf("sample in first segment = %v, want 0.5", merged.Samples[50])
	}
	if merged.Samples[150] != 0 {
		t.Errorf("sample in gap = %v, want 0", merged.Samples[150])
	}
	if merged.Samples[250] != 0.25 {
		t.Errorf("sample in second segment = %v, want 0.25", merged.Samples[250])
	}
}

func TestMergeSpanStartsAtEarliestSegment(t *testing.T) {
	tr := NewTrack(100, 1)
	tr.AddSegment(NewSegment(constantBuffer(1.0, 100, 100, 1), 5.0, 6.0, ""))
	tr.AddSegment(NewSegment(constantBuffer(0.5, 100, 100, 1), 2.0, 3.0, ""))

	merged := tr.Merge()
	// Span is [2,6] regardless of insertion order.
	if merged.Len() != 400 {
		t.Fatalf("expected 400 samples for 4s span, got %d", merged.Len())
	}
	if merged.Samples[0] != 0.5 {
		t.Errorf("first sample = %v, want 0.5 from earliest segment", merged.Samples[0])
	}
	if merged.Samples[350] != 1.0 {
		t.Errorf("sample at 5.5s = %v, want 1.0", merged.Samples[350])
	}
}

func TestMergeOverlapLastWriteWins(t *testing.T) {
	tr := NewTrack(100, 1)
	tr.AddSegment(NewSegment(constantBuffer(0.5, 200, 100, 1), 0.0, 2.0, "first"))
	tr.AddSegment(NewSegment(constantBuffer(0.9, 100, 100, 1), 1.0, 2.0, "second"))

	merged := tr.Merge()
	if merged.Samples[50] != 0.5 {
		t.Errorf("non-overlapped sample = %v, want 0.5", merged.Samples[50])
	}
	if merged.Samples[150] != 0.9 {
		t.Errorf("overlapped sample = %v, want 0.9 from later segment", merged.Samples[150])
	}
}

func TestMergeDropsOverrun(t *testing.T) {
	tr := NewTrack(100, 1)
	// Segment claims 1s but carries 2s of samples; excess must be dropped.
	tr.AddSegment(NewSegment(constantBuffer(0.5, 200, 100, 1), 0.0, 1.0, ""))

	merged := tr.Merge()
	if merged.Len() != 100 {
		t.Errorf("expected overrun dropped at 100 samples, got %d", merged.Len())
	}
}

func TestSortByStartTimeStable(t *testing.T) {
	tr := NewTrack(100, 1)
	tr.AddSegment(NewSegment(constantBuffer(0, 10, 100, 1), 3.0, 3.1, "c"))
	tr.AddSegment(NewSegment(constantBuffer(0, 10, 100, 1), 1.0, 1.1, "a1"))
	tr.AddSegment(NewSegment(constantBuffer(0, 10, 100, 1), 1.0, 1.1, "a2"))
	tr.AddSegment(NewSegment(constantBuffer(0, 10, 100, 1), 2.0, 2.1, "b"))

	tr.SortByStartTime()

	got := make([]string, 0, tr.Len())
	for _, s := range tr.Segments {
		got = append(got, s.Text)
	}
	want := []string{"a1", "a2", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sort order = %v, want %v", got, want)
		}
	}
}

func TestNormalizeSegmentsIndependent(t *testing.T) {
	tr := NewTrack(100, 1)
	tr.AddSegment(NewSegment(constantBuffer(0.5, 100, 100, 1), 0.0, 1.0, ""))
	tr.AddSegment(NewSegment(constantBuffer(0.25, 100, 100, 1), 1.0, 2.0, ""))

	tr.NormalizeSegments(1.0)

	for i, seg := range tr.Segments {
		peak := seg.Audio.PeakAmplitude()
		if math.Abs(peak-1.0) > 1e-9 {
			t.Errorf("segment %d peak = %v, want 1.0", i, peak)
		}
	}
}

func TestNormalizeTrackPreservesRatio(t *testing.T) {
	tr := NewTrack(100, 1)
	tr.AddSegment(NewSegment(constantBuffer(0.5, 100, 100, 1), 0.0, 1.0, ""))
	tr.AddSegment(NewSegment(constantBuffer(0.25, 100, 100, 1), 1.0, 2.0, ""))

	tr.NormalizeTrack(1.0)

	p0 := tr.Segments[0].Audio.PeakAmplitude()
	p1 := tr.Segments[1].Audio.PeakAmplitude()
	if math.Abs(p0-1.0) > 1e-9 {
		t.Errorf("loudest segment peak = %v, want 1.0", p0)
	}
	if math.Abs(p1-0.5) > 1e-9 {
		t.Errorf("quieter segment peak = %v, want 0.5 (ratio preserved)", p1)
	}
}

func TestSegmentDuration(t *testing.T) {
	s := NewSegment(constantBuffer(0, 10, 100, 1), 1.5, 4.0, "x")
	if d := s.Duration(); math.Abs(d-2.5) > 1e-9 {
		t.Errorf("Duration() = %v, want 2.5", d)
	}
}

func TestSegmentClone(t *testing.T) {
	s := NewSegment(constantBuffer(0.5, 10, 100, 1), 0, 1, "orig")
	c := s.Clone()
	c.Audio.Samples[0] = -1
	c.Text = "changed"
	if s.Audio.Samples[0] != 0.5 {
		t.Error("clone shares sample storage with original")
	}
	if s.Text != "orig" {
		t.Error("clone shares metadata with original")
	}
}

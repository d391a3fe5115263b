package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestWriteWAVHeader(t *testing.T) {
	b := NewBuffer([]float64{0.0, 0.5, -0.5, 1.0}, 44100, 1)
	data, err := EncodeWAV(b)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	if len(data) != wavHeaderSize+len(b.Samples)*2 {
		t.Fatalf("WAV size = %d, want %d", len(data), wavHeaderSize+len(b.Samples)*2)
	}

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	if string(data[12:16]) != "fmt " || string(data[36:40]) != "data" {
		t.Error("missing fmt/data subchunk markers")
	}

	riffSize := binary.LittleEndian.Uint32(data[4:8])
	if want := uint32(len(data) - 8); riffSize != want {
		t.Errorf("RIFF size = %d, want %d", riffSize, want)
	}
	if format := binary.LittleEndian.Uint16(data[20:22]); format != 1 {
		t.Errorf("audio format = %d, want 1 (PCM)", format)
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != 44100 {
		t.Errorf("sample rate = %d, want 44100", rate)
	}
	if bits := binary.LittleEndian.Uint16(data[34:36]); bits != 16 {
		t.Errorf("bits per sample = %d, want 16", bits)
	}
	dataSize := binary.LittleEndian.Uint32(data[40:44])
	if want := uint32(len(b.Samples) * 2); dataSize != want {
		t.Errorf("data size = %d, want %d", dataSize, want)
	}
}

func TestWriteWAVSampleScaling(t *testing.T) {
	// Out-of-range samples must clamp, in-range scale by 32767.
	b := NewBuffer([]float64{1.5, -2.0, 0.5}, 44100, 1)
	data, err := EncodeWAV(b)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	pcm := data[wavHeaderSize:]
	want := []int16{32767, -32767, 16383}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		if got != w {
			t.Errorf("sample %d = %d, want %d", i, got, w)
		}
	}
}

func TestWriteWAVEmptyBuffer(t *testing.T) {
	_, err := EncodeWAV(NewBuffer(nil, 44100, 1))
	if !errors.Is(err, ErrEmptyData) {
		t.Errorf("EncodeWAV(empty) error = %v, want ErrEmptyData", err)
	}
}

func TestWAVSurvivesDecode(t *testing.T) {
	orig := NewBuffer(nil, 22050, 1)
	for i := 0; i < 2205; i++ {
		orig.Samples = append(orig.Samples, 0.4*math.Sin(2*math.Pi*440*float64(i)/22050))
	}

	data, err := EncodeWAV(orig)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	var dec Decoder
	got, err := dec.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.SampleRate != 22050 || got.Channels != 1 {
		t.Errorf("decoded format = %d Hz %d ch, want 22050 Hz 1 ch", got.SampleRate, got.Channels)
	}
	if got.Len() != orig.Len() {
		t.Fatalf("decoded length = %d, want %d", got.Len(), orig.Len())
	}
	for i := range got.Samples {
		// 16-bit quantization error bound.
		if math.Abs(got.Samples[i]-orig.Samples[i]) > 1.0/32767+1e-9 {
			t.Fatalf("sample %d = %v, want %v within one LSB", i, got.Samples[i], orig.Samples[i])
		}
	}
}

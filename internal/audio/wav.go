package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// wavHeaderSize is the canonical RIFF/WAVE header length for plain 16-bit
// PCM: RIFF chunk (12) + fmt subchunk (24) + data subchunk header (8).
const wavHeaderSize = 44

// WriteWAV writes the buffer as 16-bit signed little-endian PCM with a
// canonical 44-byte header whose declared sizes match the payload exactly.
// Samples are clamped to [-1, 1] and scaled by 32767.
func WriteWAV(w io.Writer, b *Buffer) error {
	if b.IsEmpty() {
		return fmt.Errorf("%w: refusing to write empty WAV payload", ErrEmptyData)
	}

	const bytesPerSample = 2
	dataSize := uint32(len(b.Samples) * bytesPerSample)
	byteRate := uint32(b.SampleRate * b.Channels * bytesPerSample)
	blockAlign := uint16(b.Channels * bytesPerSample)

	var header bytes.Buffer
	header.Grow(wavHeaderSize)
	header.WriteString("RIFF")
	binary.Write(&header, binary.LittleEndian, dataSize+wavHeaderSize-8)
	header.WriteString("WAVE")
	header.WriteString("fmt ")
	binary.Write(&header, binary.LittleEndian, uint32(16)) // fmt subchunk size
	binary.Write(&header, binary.LittleEndian, uint16(1))  // PCM
	binary.Write(&header, binary.LittleEndian, uint16(b.Channels))
	binary.Write(&header, binary.LittleEndian, uint32(b.SampleRate))
	binary.Write(&header, binary.LittleEndian, byteRate)
	binary.Write(&header, binary.LittleEndian, blockAlign)
	binary.Write(&header, binary.LittleEndian, uint16(16)) // bits per sample
	header.WriteString("data")
	binary.Write(&header, binary.LittleEndian, dataSize)

	if _, err := w.Write(header.Bytes()); err != nil {
		return fmt.Errorf("failed to write WAV header: %w", err)
	}

	pcm := make([]byte, len(b.Samples)*bytesPerSample)
	for i, s := range b.Samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		v := int16(s * 32767.0)
		binary.LittleEndian.PutUint16(pcm[i*bytesPerSample:], uint16(v))
	}

	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	return nil
}

// EncodeWAV renders the buffer as an in-memory WAV payload.
func EncodeWAV(b *Buffer) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(wavHeaderSize + len(b.Samples)*2)
	if err := WriteWAV(&buf, b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveWAV writes the buffer to a WAV file at path.
func SaveWAV(path string, b *Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create WAV file: %w", err)
	}
	if err := WriteWAV(f, b); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close WAV file: %w", err)
	}
	return nil
}

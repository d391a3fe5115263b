package audio

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

// Decode errors. Empty and unrecognized input fail distinctly so callers can
// tell a silent synthesis failure from an unsupported codec.
var (
	ErrEmptyData     = errors.New("audio: empty encoded data")
	ErrUnknownFormat = errors.New("audio: unrecognized audio format")
)

// Format identifies an encoded audio payload by its magic bytes.
type Format int

const (
	FormatUnknown Format = iota
	FormatWAV
	FormatMP3
	FormatOGG
)

// String returns the conventional file extension for the format.
func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatMP3:
		return "mp3"
	case FormatOGG:
		return "ogg"
	default:
		return "unknown"
	}
}

// SniffFormat inspects the leading bytes of encoded audio data.
// MP3 is detected by an ID3 tag or an MPEG frame sync, WAV by the RIFF/WAVE
// chunk pair, OGG by the OggS capture pattern.
func SniffFormat(data []byte) Format {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV
	case len(data) >= 3 && bytes.Equal(data[0:3], []byte("ID3")):
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	case len(data) >= 4 && bytes.Equal(data[0:4], []byte("OggS")):
		return FormatOGG
	default:
		return FormatUnknown
	}
}

// Decoder converts encoded speech bytes into sample buffers. The zero value
// decodes WAV natively and shells out to ffmpeg for compressed formats.
type Decoder struct {
	// FFmpegPath overrides the ffmpeg binary used for compressed formats.
	// Empty means look up "ffmpeg" on PATH.
	FFmpegPath string
}

// Decode converts encoded audio bytes into a sample buffer.
// WAV payloads are decoded in-process; MP3 and OGG payloads are transcoded
// to WAV through ffmpeg first. Empty or unrecognized data fails with
// ErrEmptyData or ErrUnknownFormat respectively.
func (d *Decoder) Decode(data []byte) (*Buffer, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}

	switch SniffFormat(data) {
	case FormatWAV:
		return decodeWAV(data)
	case FormatMP3, FormatOGG:
		wavData, err := d.transcodeToWAV(data)
		if err != nil {
			return nil, err
		}
		return decodeWAV(wavData)
	default:
		return nil, fmt.Errorf("%w (first bytes: % X)", ErrUnknownFormat, head(data, 8))
	}
}

// decodeWAV parses a RIFF/WAVE payload into normalized float samples.
func decodeWAV(data []byte) (*Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid WAV structure", ErrUnknownFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("%w: WAV payload has no samples", ErrEmptyData)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v) / scale
	}

	return &Buffer{
		Samples:    samples,
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
	}, nil
}

// transcodeToWAV round-trips compressed bytes through ffmpeg.
// ffmpeg reads and writes temp files; stdin piping is avoided because some
// builds cannot probe MP3 duration from a pipe.
func (d *Decoder) transcodeToWAV(data []byte) ([]byte, error) {
	ffmpeg := d.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if _, err := exec.LookPath(ffmpeg); err != nil {
		return nil, fmt.Errorf("%w: compressed audio requires ffmpeg: %v", ErrUnknownFormat, err)
	}

	dir := os.TempDir()
	id := uuid.NewString()
	inPath := filepath.Join(dir, "ttssync-"+id+".in")
	outPath := filepath.Join(dir, "ttssync-"+id+".wav")
	defer os.Remove(inPath)
	defer os.Remove(outPath)

	if err := os.WriteFile(inPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to stage audio for ffmpeg: %w", err)
	}

	cmd := exec.Command(ffmpeg, "-y", "-i", inPath, "-vn", "-acodec", "pcm_s16le", outPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		log.Warn("ffmpeg decode failed", "err", err, "stderr", stderr.String())
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	return os.ReadFile(outPath)
}

func head(data []byte, n int) []byte {
	if len(data) < n {
		return data
	}
	return data[:n]
}

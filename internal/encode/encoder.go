// Package encode writes a merged sample buffer out to an audio container.
// PCM WAV is produced natively; lossy containers are delegated to an
// external ffmpeg binary and fall back to WAV when it is unavailable.
package encode

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/region23/tts-sync/internal/audio"
	"github.com/region23/tts-sync/internal/track"
)

// Format is the output container.
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
	FormatOGG Format = "ogg"
)

// ParseFormat maps a config/CLI string to a Format.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case FormatWAV, FormatMP3, FormatOGG:
		return Format(strings.ToLower(name)), nil
	default:
		return "", fmt.Errorf("unknown output format %q", name)
	}
}

// FormatForPath infers the output format from a file extension, defaulting
// to WAV.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return FormatMP3
	case ".ogg":
		return FormatOGG
	default:
		return FormatWAV
	}
}

// Encoder writes buffers to disk. FFmpegPath overrides the binary used for
// lossy formats; empty means look up "ffmpeg" on PATH.
type Encoder struct {
	FFmpegPath string
}

// Save writes the buffer to path in the requested format. Lossy formats
// need ffmpeg; when it is missing or fails the file is written as WAV
// instead, with a warning, keeping the same path.
func (e *Encoder) Save(buf *audio.Buffer, path string, format Format) error {
	if format == FormatWAV {
		return audio.SaveWAV(path, buf)
	}

	ffmpeg, err := e.ffmpegBinary()
	if err != nil {
		log.Warn("ffmpeg not available, writing PCM WAV instead",
			"requested", format, "path", path)
		return audio.SaveWAV(path, buf)
	}

	tmp := filepath.Join(os.TempDir(), "ttssync-"+uuid.NewString()+".wav")
	if err := audio.SaveWAV(tmp, buf); err != nil {
		return err
	}
	defer os.Remove(tmp)

	cmd := exec.Command(ffmpeg, "-y", "-i", tmp, "-vn", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		log.Warn("ffmpeg encode failed, writing PCM WAV instead",
			"requested", format,
			"error", err,
			"output", strings.TrimSpace(string(out)))
		return audio.SaveWAV(path, buf)
	}

	log.Debug("encoded output", "format", format, "path", path)
	return nil
}

// SaveRawConcat writes the byte concatenation of every segment's raw
// synthesized audio, letting the provider's MP3 frames pass through without
// a decode/re-encode round trip. It only qualifies when the requested
// format is MP3 and every segment in the track carries MP3-sniffable raw
// data; silence segments have no raw bytes, so any materialized gap
// disqualifies the track. Returns false when it does not qualify.
func (e *Encoder) SaveRawConcat(tr *track.Track, path string, format Format) (bool, error) {
	if format != FormatMP3 || tr.IsEmpty() {
		return false, nil
	}
	var data []byte
	for _, seg := range tr.Segments {
		if audio.SniffFormat(seg.RawEncoded) != audio.FormatMP3 {
			return false, nil
		}
		data = append(data, seg.RawEncoded...)
	}
	log.Info("writing raw MP3 passthrough", "segments", tr.Len(), "bytes", len(data))
	return true, e.SaveRaw(data, path)
}

// SaveRaw writes already-encoded bytes straight to disk, used for the
// lossless passthrough path when segments kept their original encoding.
func (e *Encoder) SaveRaw(data []byte, path string) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing encoded audio: %w", err)
	}
	return nil
}

func (e *Encoder) ffmpegBinary() (string, error) {
	if e.FFmpegPath != "" {
		return e.FFmpegPath, nil
	}
	return exec.LookPath("ffmpeg")
}

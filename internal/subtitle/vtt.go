package subtitle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidVTT marks input that is not a WebVTT document.
var ErrInvalidVTT = errors.New("invalid WebVTT input")

// Cue timing line, e.g. "00:01:02.500 --> 00:01:05.000". Hours are
// mandatory, fractional seconds are three digits.
var timestampRe = regexp.MustCompile(
	`(\d{2}):(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})\.(\d{3})`)

// ParseVTTFile parses a WebVTT file from disk.
func ParseVTTFile(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening subtitle file: %w", err)
	}
	defer f.Close()
	return ParseVTT(f)
}

// ParseVTTString parses a WebVTT document held in memory.
func ParseVTTString(content string) (*Track, error) {
	return ParseVTT(strings.NewReader(content))
}

// ParseVTT reads a WebVTT document and returns its cues sorted by start
// time. Cue identifiers and header metadata lines are skipped; multi-line
// cue text is joined with newlines. An empty document yields an empty
// track; a document whose first line is not a WEBVTT header is rejected.
func ParseVTT(r io.Reader) (*Track, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	track := &Track{}
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading subtitle input: %w", err)
		}
		return track, nil
	}
	if !strings.HasPrefix(strings.TrimSpace(scanner.Text()), "WEBVTT") {
		return nil, fmt.Errorf("%w: missing WEBVTT header", ErrInvalidVTT)
	}

	var (
		haveTiming bool
		start, end float64
		text       strings.Builder
	)
	flush := func() {
		if haveTiming && strings.TrimSpace(text.String()) != "" {
			track.Add(Cue{
				StartTime: start,
				EndTime:   end,
				Text:      strings.TrimSpace(text.String()),
			})
		}
		text.Reset()
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if m := timestampRe.FindStringSubmatch(line); m != nil {
			flush()
			var err error
			if start, err = parseTimestamp(m[1], m[2], m[3], m[4]); err != nil {
				return nil, err
			}
			if end, err = parseTimestamp(m[5], m[6], m[7], m[8]); err != nil {
				return nil, err
			}
			haveTiming = true
			continue
		}

		if line == "" {
			flush()
			haveTiming = false
			continue
		}

		// Text lines before any timing line are header metadata or cue
		// identifiers and carry no cue content.
		if haveTiming {
			if text.Len() > 0 {
				text.WriteByte('\n')
			}
			text.WriteString(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading subtitle input: %w", err)
	}
	flush()

	track.Sort()
	return track, nil
}

func parseTimestamp(hours, minutes, seconds, millis string) (float64, error) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid hours %q", ErrInvalidVTT, hours)
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid minutes %q", ErrInvalidVTT, minutes)
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid seconds %q", ErrInvalidVTT, seconds)
	}
	ms, err := strconv.Atoi(millis)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid milliseconds %q", ErrInvalidVTT, millis)
	}
	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000, nil
}

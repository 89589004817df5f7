// Package ffmpeg reads the progress reports ffmpeg writes while encoding.
package ffmpeg

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"chapterize/internal/timeutil"
	"chapterize/models"
)

// ProgressParser parses ffmpeg progress output.
//
// Two formats are understood: the key=value blocks written with
// "-progress pipe:1", and the single-line stats ffmpeg prints on stderr.
type ProgressParser struct {
	sizeRegex    *regexp.Regexp
	timeRegex    *regexp.Regexp
	bitrateRegex *regexp.Regexp
	speedRegex   *regexp.Regexp
}

// NewProgressParser creates a new parser for ffmpeg progress output
func NewProgressParser() *ProgressParser {
	return &ProgressParser{
		sizeRegex:    regexp.MustCompile(`(?:^|\s)size=\s*([0-9]+\s*[kKMG]i?B)`),
		timeRegex:    regexp.MustCompile(`(?:^|\s)time=\s*([0-9:\.]+)`),
		bitrateRegex: regexp.MustCompile(`(?:^|\s)bitrate=\s*([0-9.]+\s*kbits/s)`),
		speedRegex:   regexp.MustCompile(`(?:^|\s)speed=\s*([0-9.]+)x?`),
	}
}

// ParseLine parses a single line of ffmpeg output and updates progress.
// It returns true when any field changed.
func (pp *ProgressParser) ParseLine(line string, progress *models.EncodingProgress) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	key, value, ok := strings.Cut(line, "=")
	if ok && !strings.ContainsAny(key, " \t") && !strings.Contains(value, "=") {
		return pp.parseKeyValue(key, strings.TrimSpace(value), progress)
	}
	return pp.parseStats(line, progress)
}

// parseKeyValue handles one line of a -progress block.
func (pp *ProgressParser) parseKeyValue(key, value string, progress *models.EncodingProgress) bool {
	if value == "" || value == "N/A" {
		return false
	}

	switch key {
	case "out_time_us":
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil || us < 0 {
			return false
		}
		seconds := float64(us) / 1e6
		progress.CurrentTime = timeutil.FormatSeconds(seconds)
		progress.CalculateProgress(seconds)
		return true

	case "out_time", "time":
		seconds, err := timeutil.ParseClock(value)
		if err != nil || seconds < 0 {
			return false
		}
		progress.CurrentTime = value
		progress.CalculateProgress(seconds)
		return true

	case "total_size":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return false
		}
		progress.Size = fmt.Sprintf("%dkB", n/1024)
		return true

	case "size":
		progress.Size = strings.ReplaceAll(value, " ", "")
		return true

	case "bitrate":
		progress.Bitrate = strings.ReplaceAll(value, " ", "")
		return true

	case "speed":
		speed, err := strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64)
		if err != nil {
			return false
		}
		progress.Speed = speed
		return true

	case "progress":
		// "continue" closes every block but the last, which says "end".
		if value != "end" {
			return false
		}
		progress.Complete()
		return true
	}

	return false
}

// parseStats handles the one-line stats format.
func (pp *ProgressParser) parseStats(line string, progress *models.EncodingProgress) bool {
	updated := false

	if matches := pp.sizeRegex.FindStringSubmatch(line); len(matches) > 1 {
		progress.Size = strings.ReplaceAll(matches[1], " ", "")
		updated = true
	}

	if matches := pp.timeRegex.FindStringSubmatch(line); len(matches) > 1 {
		if seconds, err := timeutil.ParseClock(matches[1]); err == nil {
			progress.CurrentTime = matches[1]
			progress.CalculateProgress(seconds)
			updated = true
		}
	}

	if matches := pp.bitrateRegex.FindStringSubmatch(line); len(matches) > 1 {
		progress.Bitrate = strings.ReplaceAll(matches[1], " ", "")
		updated = true
	}

	if matches := pp.speedRegex.FindStringSubmatch(line); len(matches) > 1 {
		if speed, err := strconv.ParseFloat(matches[1], 64); err == nil {
			progress.Speed = speed
			updated = true
		}
	}

	return updated
}

// StreamProgress reads ffmpeg output and reports progress after every line
// that changed it. It returns an error when the stream ended without a
// single progress update.
func (pp *ProgressParser) StreamProgress(reader io.Reader, progress *models.EncodingProgress, callback models.ProgressCallback) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	seen := false
	for scanner.Scan() {
		if !pp.ParseLine(scanner.Text(), progress) {
			continue
		}
		seen = true
		if progress.State == models.ProgressStateStarting {
			progress.State = models.ProgressStateEncoding
		}
		if callback != nil {
			callback(progress)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading ffmpeg output: %w", err)
	}
	if !seen {
		return fmt.Errorf("no progress output captured from ffmpeg")
	}
	return nil
}

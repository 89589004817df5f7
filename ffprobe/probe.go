// Package ffprobe extracts container metadata from media files using the
// ffprobe command-line tool.
package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a single ffprobe invocation.
const DefaultTimeout = 30 * time.Second

// Chapter represents a chapter marker in a media file.
type Chapter struct {
	ID        int               `json:"id"`
	TimeBase  string            `json:"time_base"`
	Start     int64             `json:"start"`
	StartTime string            `json:"start_time"`
	End       int64             `json:"end"`
	EndTime   string            `json:"end_time"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// Title returns the chapter's title tag.
func (c Chapter) Title() string {
	return lookup(c.Tags, "title")
}

// Stream represents a media stream. Attached cover art shows up as a video
// stream with a single frame.
type Stream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"`
	CodecLongName string `json:"codec_long_name"`
	SampleRate    string `json:"sample_rate,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	Duration      string `json:"duration,omitempty"`
}

// Format represents the container format information.
type Format struct {
	Filename       string            `json:"filename"`
	FormatName     string            `json:"format_name"`
	FormatLongName string            `json:"format_long_name"`
	Duration       string            `json:"duration"`
	Size           string            `json:"size"`
	BitRate        string            `json:"bit_rate"`
	Tags           map[string]string `json:"tags,omitempty"`
}

// ProbeResult holds the metadata extracted from a media file.
type ProbeResult struct {
	Chapters []Chapter `json:"chapters"`
	Streams  []Stream  `json:"streams"`
	Format   Format    `json:"format"`
}

// GetDuration returns the duration of the media file in seconds.
//
// Returns an error if the duration cannot be parsed.
func (pr *ProbeResult) GetDuration() (float64, error) {
	if pr.Format.Duration == "" {
		return 0, fmt.Errorf("duration not available in format metadata")
	}
	return parseSeconds(pr.Format.Duration)
}

// Tag returns a container-level tag, or "" when it is not set.
//
// Tag names are matched case-insensitively since ffprobe reports ID3 and
// MP4 tags with different casing.
func (pr *ProbeResult) Tag(name string) string {
	return lookup(pr.Format.Tags, name)
}

// HasChapters returns true if the media file contains chapter markers.
func (pr *ProbeResult) HasChapters() bool {
	return len(pr.Chapters) > 0
}

// GetChapterCount returns the number of chapters in the media file.
func (pr *ProbeResult) GetChapterCount() int {
	return len(pr.Chapters)
}

// GetAudioStreams returns all audio streams from the media file.
func (pr *ProbeResult) GetAudioStreams() []Stream {
	var audioStreams []Stream
	for _, stream := range pr.Streams {
		if stream.CodecType == "audio" {
			audioStreams = append(audioStreams, stream)
		}
	}
	return audioStreams
}

// Prober runs ffprobe with a fixed binary and per-call timeout.
type Prober struct {
	Binary  string
	Timeout time.Duration
}

// New returns a Prober for binary. An empty binary means "ffprobe" from PATH
// and a non-positive timeout means DefaultTimeout.
func New(binary string, timeout time.Duration) *Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{Binary: binary, Timeout: timeout}
}

// Probe analyzes a media file and returns its format, streams and chapters.
//
// Example:
//
//	result, err := ffprobe.New("", 0).Probe(ctx, "/book/01.mp3")
//	if err != nil {
//	    return err
//	}
//	duration, _ := result.GetDuration()
//	title := result.Tag("title")
func (p *Prober) Probe(ctx context.Context, sourcePath string) (*ProbeResult, error) {
	if sourcePath == "" {
		return nil, fmt.Errorf("source path cannot be empty")
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_chapters",
		"-show_streams",
		"-show_format",
		sourcePath,
	}

	output, err := p.run(ctx, args)
	if err != nil {
		return nil, err
	}

	return ParseOutput(output)
}

// Duration reads only format=duration, the cheapest query ffprobe offers.
func (p *Prober) Duration(ctx context.Context, sourcePath string) (float64, error) {
	if sourcePath == "" {
		return 0, fmt.Errorf("source path cannot be empty")
	}

	args := []string{
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		sourcePath,
	}

	output, err := p.run(ctx, args)
	if err != nil {
		return 0, err
	}

	value := strings.TrimSpace(string(output))
	if value == "" || value == "N/A" {
		return 0, fmt.Errorf("duration not available for %s", sourcePath)
	}
	return parseSeconds(value)
}

func (p *Prober) run(ctx context.Context, args []string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Binary, args...)
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("ffprobe timed out after %s", p.Timeout)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffprobe failed: %w (output: %s)", err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

// ParseOutput decodes ffprobe's -print_format json output.
func ParseOutput(data []byte) (*ProbeResult, error) {
	var result ProbeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe JSON output: %w", err)
	}
	return &result, nil
}

func parseSeconds(value string) (float64, error) {
	duration, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration '%s': %w", value, err)
	}
	return duration, nil
}

func lookup(tags map[string]string, name string) string {
	if v, ok := tags[name]; ok {
		return v
	}
	for k, v := range tags {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

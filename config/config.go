// Package config holds the chapterize configuration and its layered
// loading: CLI flags override the YAML file, which overrides defaults.
package config

import (
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Config holds all chapterize configuration options
type Config struct {
	// Input and output
	Source    string `yaml:"source" validate:"required"`
	OutputDir string `yaml:"output_dir"` // empty = source directory
	Output    string `yaml:"output" validate:"required"`
	Extension string `yaml:"extension" validate:"required,oneof=m4b m4a"`
	InputExt  string `yaml:"input_ext" validate:"required,startswith=."`

	// Book tags. An empty title falls back to the album tag, then a prompt.
	Title   string `yaml:"title"`
	Artist  string `yaml:"artist"`
	Genre   string `yaml:"genre"`
	Comment string `yaml:"comment"`

	// Tag read from each file to name its chapter
	ChapterTitleTag string `yaml:"chapter_title_tag" validate:"required"`

	// Intermediate files
	MetadataFile     string `yaml:"metadata_file"` // empty = <workdir>/FFMETADATA.txt
	WorkDir          string `yaml:"work_dir"`      // empty = fresh temp directory
	KeepIntermediate bool   `yaml:"keep_intermediate"`

	Probe    ProbeConfig    `yaml:"probe"`
	Encode   EncodeConfig   `yaml:"encode"`
	Artwork  ArtworkConfig  `yaml:"artwork"`
	Tools    ToolsConfig    `yaml:"tools"`
	Chapters ChaptersConfig `yaml:"chapters"`
	Log      LogConfig      `yaml:"log"`

	// Behavioral flags
	Interactive    bool `yaml:"interactive"`     // Prompt for a missing title on a terminal
	VerifyChapters bool `yaml:"verify_chapters"` // Re-probe the output and compare chapter counts
	Verbose        bool `yaml:"verbose"`
	DryRun         bool `yaml:"dry_run"` // Show config and commands without running them
}

// ProbeConfig holds duration and tag probing settings
type ProbeConfig struct {
	DurationStrategy string        `yaml:"duration_strategy"` // ffprobe, mp3frames, audiometa
	TagStrategy      string        `yaml:"tag_strategy"`      // ffprobe, id3v2, audiometa, tag
	Calibration      float64       `yaml:"calibration" validate:"gt=0"`
	Workers          int           `yaml:"workers" validate:"gte=0"` // 0 = auto-detect
	Timeout          time.Duration `yaml:"timeout"`
	OnFailure        string        `yaml:"on_failure"` // skip, placeholder, abort
}

// EncodeConfig holds encoder settings. SampleRate, Channels and Filters
// apply to per-file conversions only.
type EncodeConfig struct {
	Codec      string        `yaml:"codec" validate:"required"`    // e.g., "aac", "copy"
	Bitrate    string        `yaml:"bitrate" validate:"required"`  // e.g., "64k", "96k"
	Timeout    time.Duration `yaml:"timeout"`                      // 0 = no limit
	SampleRate int           `yaml:"sample_rate" validate:"gte=0"` // Hz, 0 = keep the input rate
	Channels   int           `yaml:"channels" validate:"gte=0"`    // 0 = keep the input layout
	Filters    []string      `yaml:"filters"`                      // ffmpeg audio filters, applied in order
}

// ArtworkConfig holds cover art settings
type ArtworkConfig struct {
	Path        string        `yaml:"path"` // relative paths resolve against the source directory
	Tool        string        `yaml:"tool"` // atomicparsley, ffmpeg
	UseEmbedded bool          `yaml:"use_embedded"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ToolsConfig holds the external executables
type ToolsConfig struct {
	FFmpeg        string `yaml:"ffmpeg" validate:"required"`
	FFprobe       string `yaml:"ffprobe" validate:"required"`
	AtomicParsley string `yaml:"atomicparsley" validate:"required"`
}

// ChaptersConfig holds chapter timing settings
type ChaptersConfig struct {
	UnitsPerSecond int64 `yaml:"units_per_second" validate:"gt=0"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"oneof=pretty json"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Source:    ".",
		Output:    "audiobook",
		Extension: "m4b",
		InputExt:  ".mp3",

		Genre:           "Audiobook",
		ChapterTitleTag: "title",

		Probe: ProbeConfig{
			DurationStrategy: "ffprobe",
			TagStrategy:      "ffprobe",
			Calibration:      1.0,
			Workers:          0, // Auto-detect CPU count
			Timeout:          30 * time.Second,
			OnFailure:        "skip",
		},

		Encode: EncodeConfig{
			Codec:   "aac",
			Bitrate: "96k",
		},

		Artwork: ArtworkConfig{
			Path:    "cover.jpg",
			Tool:    "atomicparsley",
			Timeout: 5 * time.Minute,
		},

		Tools: ToolsConfig{
			FFmpeg:        "ffmpeg",
			FFprobe:       "ffprobe",
			AtomicParsley: "AtomicParsley",
		},

		Chapters: ChaptersConfig{
			UnitsPerSecond: 1_000_000_000,
		},

		Log: LogConfig{
			Level:  "info",
			Format: "pretty",
		},

		Interactive: true,
	}
}

// Copy creates a copy of the config. All nested sections are values.
func (c *Config) Copy() *Config {
	copy := *c
	copy.Encode.Filters = slices.Clone(c.Encode.Filters)
	return &copy
}

// Normalize tidies user input: the output extension loses its dot, the
// input extension gains one and both are lower-cased.
func (c *Config) Normalize() {
	c.Extension = strings.ToLower(strings.TrimPrefix(c.Extension, "."))
	if c.InputExt != "" && !strings.HasPrefix(c.InputExt, ".") {
		c.InputExt = "." + c.InputExt
	}
	c.InputExt = strings.ToLower(c.InputExt)
	c.Probe.TagStrategy = strings.ToLower(c.Probe.TagStrategy)
	c.Probe.DurationStrategy = strings.ToLower(c.Probe.DurationStrategy)
	c.Probe.OnFailure = strings.ToLower(c.Probe.OnFailure)
	c.Artwork.Tool = strings.ToLower(c.Artwork.Tool)
}

// OutputPath returns <output-dir>/<output>.<ext>.
func (c *Config) OutputPath() string {
	dir := c.OutputDir
	if dir == "" {
		dir = c.Source
	}
	return filepath.Join(dir, c.Output+"."+c.Extension)
}

// ArtworkPath returns the cover image path. Relative paths are resolved
// against the source directory. Empty means no artwork.
func (c *Config) ArtworkPath() string {
	if c.Artwork.Path == "" || filepath.IsAbs(c.Artwork.Path) {
		return c.Artwork.Path
	}
	return filepath.Join(c.Source, c.Artwork.Path)
}

// MetadataPath returns the FFMETADATA document path inside workDir unless
// one was configured.
func (c *Config) MetadataPath(workDir string) string {
	if c.MetadataFile != "" {
		return c.MetadataFile
	}
	return filepath.Join(workDir, "FFMETADATA.txt")
}

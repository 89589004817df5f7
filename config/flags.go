package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// FlagConfig names the flag holding an explicit config file path.
const FlagConfig = "config"

// RegisterFlags defines every configuration flag on fs. Defaults shown in
// help come from DefaultConfig; only flags the user changes override the
// config file.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()

	fs.String(FlagConfig, "", "Path to config file (default: search ./chapterize.yaml, ~/.chapterize/config.yaml, /etc/chapterize/config.yaml)")

	// Input and output
	fs.StringP("source", "s", d.Source, "Directory containing the input files")
	fs.StringP("output-dir", "d", d.OutputDir, "Directory for the finished audiobook (default: source directory)")
	fs.StringP("output", "o", d.Output, "Output file name without extension")
	fs.String("ext", d.Extension, "Output container extension: m4b, m4a")
	fs.String("input-ext", d.InputExt, "Extension of the input files")

	// Book tags
	fs.StringP("title", "t", d.Title, "Book title (default: album tag of the first file, then a prompt)")
	fs.String("artist", d.Artist, "Book artist (default: artist tag of the first file)")
	fs.String("genre", d.Genre, "Book genre")
	fs.String("comment", d.Comment, "Book comment")
	fs.String("chapter-title-tag", d.ChapterTitleTag, "Tag used to name each chapter")

	// Intermediate files
	fs.String("metadata-file", d.MetadataFile, "Where to write the FFMETADATA document (default: <workdir>/FFMETADATA.txt)")
	fs.String("workdir", d.WorkDir, "Directory for intermediate files (default: a temporary directory)")
	fs.Bool("keep-intermediate", d.KeepIntermediate, "Keep intermediate files after the run")

	// Probing
	fs.String("duration-strategy", d.Probe.DurationStrategy, "Duration probe: ffprobe, mp3frames, audiometa")
	fs.String("tag-strategy", d.Probe.TagStrategy, "Tag reader: ffprobe, id3v2, audiometa, tag")
	fs.Float64("calibration", d.Probe.Calibration, "Multiplier applied to every probed duration")
	fs.IntP("workers", "j", d.Probe.Workers, "Number of parallel probes (0 = auto-detect)")
	fs.Duration("probe-timeout", d.Probe.Timeout, "Timeout for each probe")
	fs.String("on-failure", d.Probe.OnFailure, "What to do with a file whose duration cannot be read: skip, placeholder, abort")

	// Encoding
	fs.String("codec", d.Encode.Codec, "Audio codec for the merged file (copy = no re-encode)")
	fs.StringP("bitrate", "b", d.Encode.Bitrate, "Audio bitrate, e.g., 64k, 96k")
	fs.Duration("encode-timeout", d.Encode.Timeout, "Timeout for concatenation (0 = no limit)")
	fs.Int("sample-rate", d.Encode.SampleRate, "Sample rate in Hz for converted files (0 = keep)")
	fs.Int("channels", d.Encode.Channels, "Channel count for converted files (0 = keep)")
	fs.StringSlice("filter", d.Encode.Filters, "Audio filter for converted files, e.g., loudnorm (repeatable)")

	// Artwork
	fs.StringP("artwork", "a", d.Artwork.Path, "Cover image, relative to the source directory")
	fs.String("artwork-tool", d.Artwork.Tool, "Artwork tool: atomicparsley, ffmpeg")
	fs.Bool("use-embedded-artwork", d.Artwork.UseEmbedded, "Use the first file's embedded cover when the image is missing")
	fs.Duration("artwork-timeout", d.Artwork.Timeout, "Timeout for attaching artwork")

	// Tools
	fs.String("ffmpeg", d.Tools.FFmpeg, "ffmpeg executable")
	fs.String("ffprobe", d.Tools.FFprobe, "ffprobe executable")
	fs.String("atomicparsley", d.Tools.AtomicParsley, "AtomicParsley executable")

	fs.Int64("units-per-second", d.Chapters.UnitsPerSecond, "Chapter time units per second")

	// Logging and behavior
	fs.String("log-level", d.Log.Level, "Log level: debug, info, warn, error")
	fs.String("log-format", d.Log.Format, "Log format: pretty, json")
	fs.Bool("interactive", d.Interactive, "Prompt for a missing title when running in a terminal")
	fs.Bool("verify", d.VerifyChapters, "Re-probe the finished file and compare chapter counts")
	fs.BoolP("verbose", "v", d.Verbose, "Enable verbose logging")
	fs.Bool("dry-run", d.DryRun, "Show configuration and commands without running them")
}

// MergeFromFlags overrides config values with every flag the user set.
func (c *Config) MergeFromFlags(fs *pflag.FlagSet) error {
	var err error
	str := func(name string, dst *string) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetString(name)
		}
	}
	boolean := func(name string, dst *bool) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetBool(name)
		}
	}

	str("source", &c.Source)
	str("output-dir", &c.OutputDir)
	str("output", &c.Output)
	str("ext", &c.Extension)
	str("input-ext", &c.InputExt)

	str("title", &c.Title)
	str("artist", &c.Artist)
	str("genre", &c.Genre)
	str("comment", &c.Comment)
	str("chapter-title-tag", &c.ChapterTitleTag)

	str("metadata-file", &c.MetadataFile)
	str("workdir", &c.WorkDir)
	boolean("keep-intermediate", &c.KeepIntermediate)

	str("duration-strategy", &c.Probe.DurationStrategy)
	str("tag-strategy", &c.Probe.TagStrategy)
	str("on-failure", &c.Probe.OnFailure)

	str("codec", &c.Encode.Codec)
	str("bitrate", &c.Encode.Bitrate)

	str("artwork", &c.Artwork.Path)
	str("artwork-tool", &c.Artwork.Tool)
	boolean("use-embedded-artwork", &c.Artwork.UseEmbedded)

	str("ffmpeg", &c.Tools.FFmpeg)
	str("ffprobe", &c.Tools.FFprobe)
	str("atomicparsley", &c.Tools.AtomicParsley)

	str("log-level", &c.Log.Level)
	str("log-format", &c.Log.Format)
	boolean("interactive", &c.Interactive)
	boolean("verify", &c.VerifyChapters)
	boolean("verbose", &c.Verbose)
	boolean("dry-run", &c.DryRun)

	if err != nil {
		return fmt.Errorf("failed to read flags: %w", err)
	}

	if fs.Changed("calibration") {
		if c.Probe.Calibration, err = fs.GetFloat64("calibration"); err != nil {
			return fmt.Errorf("failed to read flags: %w", err)
		}
	}
	if fs.Changed("workers") {
		if c.Probe.Workers, err = fs.GetInt("workers"); err != nil {
			return fmt.Errorf("failed to read flags: %w", err)
		}
	}
	ints := map[string]*int{
		"sample-rate": &c.Encode.SampleRate,
		"channels":    &c.Encode.Channels,
	}
	for name, dst := range ints {
		if !fs.Changed(name) {
			continue
		}
		if *dst, err = fs.GetInt(name); err != nil {
			return fmt.Errorf("failed to read flags: %w", err)
		}
	}
	if fs.Changed("filter") {
		if c.Encode.Filters, err = fs.GetStringSlice("filter"); err != nil {
			return fmt.Errorf("failed to read flags: %w", err)
		}
	}
	if fs.Changed("units-per-second") {
		if c.Chapters.UnitsPerSecond, err = fs.GetInt64("units-per-second"); err != nil {
			return fmt.Errorf("failed to read flags: %w", err)
		}
	}

	timeouts := map[string]*time.Duration{
		"probe-timeout":   &c.Probe.Timeout,
		"encode-timeout":  &c.Encode.Timeout,
		"artwork-timeout": &c.Artwork.Timeout,
	}
	for name, dst := range timeouts {
		if !fs.Changed(name) {
			continue
		}
		if *dst, err = fs.GetDuration(name); err != nil {
			return fmt.Errorf("failed to read flags: %w", err)
		}
	}

	if c.Verbose && !fs.Changed("log-level") {
		c.Log.Level = "debug"
	}

	return nil
}

// PrintConfig prints the effective configuration
func (c *Config) PrintConfig(w io.Writer) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w, "                 Effective Configuration                  ")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "Source:         %s (*%s)\n", c.Source, c.InputExt)
	fmt.Fprintf(w, "Output:         %s\n", c.OutputPath())
	if c.Title != "" {
		fmt.Fprintf(w, "Title:          %s\n", c.Title)
	}
	if c.Artist != "" {
		fmt.Fprintf(w, "Artist:         %s\n", c.Artist)
	}
	fmt.Fprintf(w, "Genre:          %s\n", c.Genre)
	fmt.Fprintf(w, "Chapter Tag:    %s\n", c.ChapterTitleTag)

	fmt.Fprintln(w, "\nProbe Settings:")
	fmt.Fprintf(w, "  Duration:     %s\n", c.Probe.DurationStrategy)
	fmt.Fprintf(w, "  Tags:         %s\n", c.Probe.TagStrategy)
	fmt.Fprintf(w, "  Calibration:  %g\n", c.Probe.Calibration)
	fmt.Fprintf(w, "  Workers:      %d\n", c.Probe.Workers)
	fmt.Fprintf(w, "  Timeout:      %s\n", c.Probe.Timeout)
	fmt.Fprintf(w, "  On Failure:   %s\n", c.Probe.OnFailure)

	fmt.Fprintln(w, "\nEncode Settings:")
	fmt.Fprintf(w, "  Codec:        %s\n", c.Encode.Codec)
	fmt.Fprintf(w, "  Bitrate:      %s\n", c.Encode.Bitrate)
	if c.Encode.Timeout > 0 {
		fmt.Fprintf(w, "  Timeout:      %s\n", c.Encode.Timeout)
	}
	if c.Encode.SampleRate > 0 {
		fmt.Fprintf(w, "  Sample Rate:  %d Hz\n", c.Encode.SampleRate)
	}
	if c.Encode.Channels > 0 {
		fmt.Fprintf(w, "  Channels:     %d\n", c.Encode.Channels)
	}
	if len(c.Encode.Filters) > 0 {
		fmt.Fprintf(w, "  Filters:      %s\n", strings.Join(c.Encode.Filters, ", "))
	}

	fmt.Fprintln(w, "\nArtwork Settings:")
	fmt.Fprintf(w, "  Image:        %s\n", c.ArtworkPath())
	fmt.Fprintf(w, "  Tool:         %s\n", c.Artwork.Tool)
	fmt.Fprintf(w, "  Use Embedded: %v\n", c.Artwork.UseEmbedded)

	fmt.Fprintln(w, "\nBehavioral Flags:")
	fmt.Fprintf(w, "  Interactive:  %v\n", c.Interactive)
	fmt.Fprintf(w, "  Keep Files:   %v\n", c.KeepIntermediate)
	fmt.Fprintf(w, "  Verify:       %v\n", c.VerifyChapters)
	fmt.Fprintf(w, "  Log Level:    %s\n", c.Log.Level)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}

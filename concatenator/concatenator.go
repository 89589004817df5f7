// Package concatenator merges the probed input files into a single
// container through ffmpeg's concat demuxer.
package concatenator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chapterize/command/concat"
	"chapterize/models"
)

// Options configures the ffmpeg invocation.
type Options struct {
	Binary  string
	Codec   string
	Bitrate string
	Timeout time.Duration
	// WorkDir receives the concat list file. Empty means os.TempDir().
	WorkDir string
	// KeepList leaves the list file on disk after the run.
	KeepList bool
}

// Concatenator handles merging input files into one output file.
type Concatenator struct {
	opts         Options
	totalSeconds float64
	progress     models.ProgressCallback
}

// NewConcatenator creates a new concatenator
func NewConcatenator(opts Options) *Concatenator {
	if opts.Codec == "" {
		opts.Codec = concat.DefaultCodec
	}
	return &Concatenator{opts: opts}
}

// SetProgressCallback reports ffmpeg progress against totalSeconds of audio.
func (c *Concatenator) SetProgressCallback(totalSeconds float64, callback models.ProgressCallback) {
	c.totalSeconds = totalSeconds
	c.progress = callback
}

// Concatenate merges paths, in order, into outputPath and applies the
// global tags and chapters from the FFMETADATA1 document at metadataPath.
//
// Any failure, including a missing input, is returned as an encode failure
// for outputPath. Cancellation is returned unwrapped.
func (c *Concatenator) Concatenate(ctx context.Context, paths []string, metadataPath, outputPath string) error {
	if err := c.validateInputs(paths, metadataPath); err != nil {
		return models.NewEncodeFailure(outputPath, err)
	}

	listPath, err := c.createListFile(paths)
	if err != nil {
		return models.NewEncodeFailure(outputPath, fmt.Errorf("failed to create concat list: %w", err))
	}
	if !c.opts.KeepList {
		defer os.Remove(listPath)
	}

	if err := c.Command(listPath, metadataPath, outputPath).Run(ctx); err != nil {
		return err
	}

	if _, err := os.Stat(outputPath); err != nil {
		return models.NewEncodeFailure(outputPath, fmt.Errorf("output file not created: %w", err))
	}
	return nil
}

// Command returns the configured builder for an existing list file.
func (c *Concatenator) Command(listPath, metadataPath, outputPath string) *concat.ConcatBuilder {
	builder := concat.NewConcatBuilder(listPath, metadataPath, outputPath).
		SetBinary(c.opts.Binary).
		SetCodec(c.opts.Codec).
		SetBitrate(c.opts.Bitrate).
		SetTimeout(c.opts.Timeout)

	if c.progress != nil {
		builder.SetTotalDuration(c.totalSeconds).SetProgressCallback(c.progress)
	}
	return builder
}

func (c *Concatenator) validateInputs(paths []string, metadataPath string) error {
	if len(paths) == 0 {
		return errors.New("no input files to concatenate")
	}

	var missing []string
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing input files: %s", strings.Join(missing, ", "))
	}

	if _, err := os.Stat(metadataPath); err != nil {
		return fmt.Errorf("metadata document: %w", err)
	}
	return nil
}

// createListFile writes the concat list into the work directory.
func (c *Concatenator) createListFile(paths []string) (string, error) {
	tmpFile, err := os.CreateTemp(c.opts.WorkDir, "concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tmpFile.Close()

	if err := WriteList(tmpFile, paths); err != nil {
		os.Remove(tmpFile.Name())
		return "", err
	}
	return tmpFile.Name(), nil
}

// WriteList writes a concat demuxer list with one absolute path per line.
// Format: file '/path/to/01.mp3'
//
//	file '/path/to/02.mp3'
func WriteList(w io.Writer, paths []string) error {
	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to get absolute path for %s: %w", path, err)
		}

		if _, err := fmt.Fprintf(w, "file '%s'\n", escapeListPath(absPath)); err != nil {
			return fmt.Errorf("failed to write to concat list: %w", err)
		}
	}
	return nil
}

// escapeListPath closes the quote, emits an escaped quote and reopens it.
func escapeListPath(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

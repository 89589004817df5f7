// Package concat builds the ffmpeg invocation that merges the input files
// into one container and applies the chapter metadata document.
package concat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chapterize/command"
	"chapterize/models"
)

const (
	DefaultCodec   = "aac"
	DefaultBitrate = "96k"
)

// ConcatBuilder implements command.Command for the concat step.
//
// The inputs are read through ffmpeg's concat demuxer from a list file, and
// global tags plus chapters come from an FFMETADATA1 document given as the
// second input.
type ConcatBuilder struct {
	listPath         string
	metadataPath     string
	outputPath       string
	binary           string
	codec            string
	bitrate          string
	timeout          time.Duration
	totalSeconds     float64
	progressCallback models.ProgressCallback
}

// NewConcatBuilder creates a builder reading the concat list at listPath and
// the metadata document at metadataPath.
func NewConcatBuilder(listPath, metadataPath, outputPath string) *ConcatBuilder {
	return &ConcatBuilder{
		listPath:     listPath,
		metadataPath: metadataPath,
		outputPath:   outputPath,
		binary:       "ffmpeg",
		codec:        DefaultCodec,
		bitrate:      DefaultBitrate,
	}
}

// SetBinary sets the ffmpeg executable.
func (c *ConcatBuilder) SetBinary(binary string) *ConcatBuilder {
	if binary != "" {
		c.binary = binary
	}
	return c
}

// SetCodec sets the audio codec. "copy" skips re-encoding.
func (c *ConcatBuilder) SetCodec(codec string) *ConcatBuilder {
	c.codec = codec
	return c
}

// SetBitrate sets the audio bitrate (e.g., "96k").
func (c *ConcatBuilder) SetBitrate(bitrate string) *ConcatBuilder {
	c.bitrate = bitrate
	return c
}

// SetTimeout bounds the whole run. Zero means no limit.
func (c *ConcatBuilder) SetTimeout(timeout time.Duration) *ConcatBuilder {
	c.timeout = timeout
	return c
}

// SetTotalDuration sets the expected output length used for progress.
func (c *ConcatBuilder) SetTotalDuration(seconds float64) *ConcatBuilder {
	c.totalSeconds = seconds
	return c
}

// SetProgressCallback enables -progress reporting.
func (c *ConcatBuilder) SetProgressCallback(callback models.ProgressCallback) *ConcatBuilder {
	c.progressCallback = callback
	return c
}

// BuildArgs constructs the ffmpeg arguments.
func (c *ConcatBuilder) BuildArgs() []string {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-f", "concat",
		"-safe", "0",
		"-i", c.listPath,
		"-i", c.metadataPath,
		"-map", "0:a",
		"-map_metadata", "1",
		"-map_chapters", "1",
		"-vn",
		"-c:a", c.codec,
	}

	if c.codec != "copy" && c.bitrate != "" {
		args = append(args, "-b:a", c.bitrate)
	}

	if c.progressCallback != nil {
		args = append(args, "-progress", "pipe:1", "-nostats")
	}

	return append(args, "-y", c.outputPath)
}

func (c *ConcatBuilder) validate() error {
	switch {
	case c.listPath == "":
		return fmt.Errorf("concat list path cannot be empty")
	case c.metadataPath == "":
		return fmt.Errorf("metadata path cannot be empty")
	case c.outputPath == "":
		return fmt.Errorf("output path cannot be empty")
	}
	return nil
}

// Run executes ffmpeg. Failures and timeouts are returned as encode failures.
func (c *ConcatBuilder) Run(ctx context.Context) error {
	if err := c.validate(); err != nil {
		return models.NewEncodeFailure(c.outputPath, err)
	}

	runner := command.Runner{Binary: c.binary, Timeout: c.timeout}

	var err error
	if c.progressCallback != nil {
		err = runner.RunWithProgress(ctx, c.BuildArgs(), c.totalSeconds, c.progressCallback)
	} else {
		err = runner.Run(ctx, c.BuildArgs())
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return models.NewEncodeFailure(c.outputPath, err)
	}
	return nil
}

// DryRun returns the shell-quoted ffmpeg command line.
func (c *ConcatBuilder) DryRun() (string, error) {
	if err := c.validate(); err != nil {
		return "", fmt.Errorf("cannot build command: %w", err)
	}
	return command.Preview(c.binary, c.BuildArgs()), nil
}

// GetTaskType returns the task type (concat).
func (c *ConcatBuilder) GetTaskType() command.TaskType {
	return command.TaskTypeConcat
}

// GetInputPath returns the concat list path.
func (c *ConcatBuilder) GetInputPath() string {
	return c.listPath
}

// GetOutputPath returns the output file path.
func (c *ConcatBuilder) GetOutputPath() string {
	return c.outputPath
}

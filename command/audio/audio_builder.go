// Package audio builds single-file ffmpeg conversions, such as turning each
// source MP3 into an M4A without its embedded cover stream.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chapterize/command"
	"chapterize/models"
)

// AudioBuilder implements command.Command for one input file.
type AudioBuilder struct {
	inputPath        string
	outputPath       string
	binary           string
	codec            string
	bitrate          string
	sampleRate       int
	channels         int
	filters          []string
	timeout          time.Duration
	duration         float64
	progressCallback models.ProgressCallback
}

var _ command.Command = (*AudioBuilder)(nil)

// NewAudioBuilder creates a new AudioBuilder for the given input and output path.
func NewAudioBuilder(inputPath, outputPath string) *AudioBuilder {
	return &AudioBuilder{
		inputPath:  inputPath,
		outputPath: outputPath,
		binary:     "ffmpeg",
		codec:      "aac",
		bitrate:    "96k",
	}
}

// SetCodec sets the audio codec (e.g., "aac", "libfdk_aac", "copy").
func (a *AudioBuilder) SetCodec(codec string) *AudioBuilder {
	a.codec = codec
	return a
}

// SetBitrate sets the audio bitrate (e.g., "64k", "96k").
func (a *AudioBuilder) SetBitrate(bitrate string) *AudioBuilder {
	a.bitrate = bitrate
	return a
}

// SetSampleRate sets the audio sample rate in Hz (e.g., 44100).
func (a *AudioBuilder) SetSampleRate(rate int) *AudioBuilder {
	a.sampleRate = rate
	return a
}

// SetChannels sets the number of audio channels (e.g., 1 for mono).
func (a *AudioBuilder) SetChannels(channels int) *AudioBuilder {
	a.channels = channels
	return a
}

// SetFilters appends an audio filter (e.g., "loudnorm").
func (a *AudioBuilder) SetFilters(filter string) *AudioBuilder {
	if filter != "" {
		a.filters = append(a.filters, filter)
	}
	return a
}

// SetProgressCallback sets the callback function for progress updates.
func (a *AudioBuilder) SetProgressCallback(callback models.ProgressCallback) *AudioBuilder {
	a.progressCallback = callback
	return a
}

// SetBinary sets the ffmpeg executable.
func (a *AudioBuilder) SetBinary(binary string) *AudioBuilder {
	if binary != "" {
		a.binary = binary
	}
	return a
}

// SetTimeout bounds the run. Zero means no limit.
func (a *AudioBuilder) SetTimeout(timeout time.Duration) *AudioBuilder {
	a.timeout = timeout
	return a
}

// SetDuration sets the input length used to compute progress.
func (a *AudioBuilder) SetDuration(seconds float64) *AudioBuilder {
	a.duration = seconds
	return a
}

// BuildArgs constructs the FFmpeg command arguments.
func (a *AudioBuilder) BuildArgs() []string {
	if a.inputPath == "" {
		return []string{}
	}

	args := []string{
		"-hide_banner",
		"-nostdin",
		"-i", a.inputPath,
		"-vn", // Drop embedded cover art
		"-c:a", a.codec,
	}

	if a.codec != "copy" && a.bitrate != "" {
		args = append(args, "-b:a", a.bitrate)
	}

	if a.sampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(a.sampleRate))
	}

	if a.channels > 0 {
		args = append(args, "-ac", strconv.Itoa(a.channels))
	}

	if len(a.filters) > 0 {
		args = append(args, "-af", strings.Join(a.filters, ","))
	}

	if a.progressCallback != nil {
		args = append(args, "-progress", "pipe:1", "-nostats")
	}

	return append(args, "-y", a.outputPath)
}

// Run executes the FFmpeg command.
func (a *AudioBuilder) Run(ctx context.Context) error {
	if a.inputPath == "" {
		return fmt.Errorf("cannot run command: input path is empty")
	}

	runner := command.Runner{Binary: a.binary, Timeout: a.timeout}

	var err error
	if a.progressCallback != nil {
		err = runner.RunWithProgress(ctx, a.BuildArgs(), a.duration, a.progressCallback)
	} else {
		err = runner.Run(ctx, a.BuildArgs())
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return models.NewEncodeFailure(a.inputPath, err)
	}
	return nil
}

// DryRun returns the shell-quoted FFmpeg command without executing it.
func (a *AudioBuilder) DryRun() (string, error) {
	if a.inputPath == "" {
		return "", fmt.Errorf("cannot build command: input path is empty")
	}
	return command.Preview(a.binary, a.BuildArgs()), nil
}

// GetTaskType returns the task type (convert).
func (a *AudioBuilder) GetTaskType() command.TaskType {
	return command.TaskTypeConvert
}

// GetInputPath returns the input file path.
func (a *AudioBuilder) GetInputPath() string {
	return a.inputPath
}

// GetOutputPath returns the output file path.
func (a *AudioBuilder) GetOutputPath() string {
	return a.outputPath
}

// Package artwork builds the command that embeds a cover image into the
// merged container.
package artwork

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chapterize/command"
	"chapterize/models"
)

// Tool selects the program that writes the cover.
type Tool string

const (
	ToolAtomicParsley Tool = "atomicparsley"
	ToolFFmpeg        Tool = "ffmpeg"
)

// ParseTool converts a configuration value into a Tool.
func ParseTool(s string) (Tool, error) {
	switch t := Tool(strings.ToLower(strings.TrimSpace(s))); t {
	case ToolAtomicParsley, ToolFFmpeg:
		return t, nil
	case "":
		return ToolAtomicParsley, nil
	default:
		return "", fmt.Errorf("unknown artwork tool %q (valid: atomicparsley, ffmpeg)", s)
	}
}

// ArtworkBuilder implements command.Command for the artwork step.
type ArtworkBuilder struct {
	inputPath  string
	imagePath  string
	outputPath string
	tool       Tool
	binary     string
	timeout    time.Duration
}

// NewArtworkBuilder creates a builder that writes inputPath with imagePath
// as its cover to outputPath, using AtomicParsley.
func NewArtworkBuilder(inputPath, imagePath, outputPath string) *ArtworkBuilder {
	return &ArtworkBuilder{
		inputPath:  inputPath,
		imagePath:  imagePath,
		outputPath: outputPath,
		tool:       ToolAtomicParsley,
	}
}

// SetTool selects AtomicParsley or ffmpeg.
func (a *ArtworkBuilder) SetTool(tool Tool) *ArtworkBuilder {
	a.tool = tool
	return a
}

// SetBinary overrides the executable for the selected tool.
func (a *ArtworkBuilder) SetBinary(binary string) *ArtworkBuilder {
	a.binary = binary
	return a
}

// SetTimeout bounds the run. Zero means no limit.
func (a *ArtworkBuilder) SetTimeout(timeout time.Duration) *ArtworkBuilder {
	a.timeout = timeout
	return a
}

func (a *ArtworkBuilder) executable() string {
	if a.binary != "" {
		return a.binary
	}
	if a.tool == ToolFFmpeg {
		return "ffmpeg"
	}
	return "AtomicParsley"
}

// BuildArgs constructs the tool arguments.
func (a *ArtworkBuilder) BuildArgs() []string {
	if a.tool == ToolFFmpeg {
		return []string{
			"-hide_banner",
			"-nostdin",
			"-i", a.inputPath,
			"-i", a.imagePath,
			"-map", "0:a",
			"-map", "1:0",
			"-map_metadata", "0",
			"-map_chapters", "0",
			"-c", "copy",
			"-disposition:v:0", "attached_pic",
			"-y", a.outputPath,
		}
	}

	return []string{
		a.inputPath,
		"--artwork", a.imagePath,
		"-o", a.outputPath,
	}
}

func (a *ArtworkBuilder) validate() error {
	switch {
	case a.inputPath == "":
		return fmt.Errorf("input path cannot be empty")
	case a.imagePath == "":
		return fmt.Errorf("image path cannot be empty")
	case a.outputPath == "":
		return fmt.Errorf("output path cannot be empty")
	case a.tool != ToolAtomicParsley && a.tool != ToolFFmpeg:
		return fmt.Errorf("unknown artwork tool %q", a.tool)
	}
	return nil
}

// Run executes the tool. Failures and timeouts are returned as artwork failures.
func (a *ArtworkBuilder) Run(ctx context.Context) error {
	if err := a.validate(); err != nil {
		return models.NewArtworkFailure(a.outputPath, err)
	}

	runner := command.Runner{Binary: a.executable(), Timeout: a.timeout}
	if err := runner.Run(ctx, a.BuildArgs()); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return models.NewArtworkFailure(a.outputPath, err)
	}
	return nil
}

// DryRun returns the shell-quoted command line.
func (a *ArtworkBuilder) DryRun() (string, error) {
	if err := a.validate(); err != nil {
		return "", fmt.Errorf("cannot build command: %w", err)
	}
	return command.Preview(a.executable(), a.BuildArgs()), nil
}

// GetTaskType returns the task type (artwork).
func (a *ArtworkBuilder) GetTaskType() command.TaskType {
	return command.TaskTypeArtwork
}

// GetInputPath returns the container being tagged.
func (a *ArtworkBuilder) GetInputPath() string {
	return a.inputPath
}

// GetOutputPath returns the output file path.
func (a *ArtworkBuilder) GetOutputPath() string {
	return a.outputPath
}

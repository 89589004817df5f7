// Package command provides the Command interface shared by the builders that
// drive external tools, and the runner that executes them.
//
// Builders only assemble argument lists; nothing is ever passed through a
// shell. DryRun renders a shell-quoted preview for the user.
package command

import (
	"context"
	"strings"

	"gopkg.in/alessio/shellescape.v1"
)

// TaskType represents the kind of work a command performs.
type TaskType string

const (
	TaskTypeConvert TaskType = "convert" // Single file re-encode
	TaskTypeConcat  TaskType = "concat"  // Merge inputs and apply chapter metadata
	TaskTypeArtwork TaskType = "artwork" // Attach cover image
)

// Command represents an external tool invocation that can be built,
// executed, or previewed.
//
// Example usage:
//
//	cmd := concat.NewConcatBuilder(listPath, metadataPath, "book.m4a").
//		SetBitrate("96k")
//
//	preview, _ := cmd.DryRun()
//	err := cmd.Run(ctx)
type Command interface {
	// BuildArgs returns the tool's argument list, without the binary name.
	BuildArgs() []string

	// Run executes the command and blocks until it exits, the per-command
	// timeout expires or ctx is cancelled.
	Run(ctx context.Context) error

	// DryRun returns the command line as it would be typed in a shell.
	DryRun() (string, error)

	// GetTaskType returns the type of task, used for logging.
	GetTaskType() TaskType

	// GetInputPath returns the primary input file path.
	GetInputPath() string

	// GetOutputPath returns the output file path.
	GetOutputPath() string
}

// Preview renders binary and args as a single shell-safe command line.
func Preview(binary string, args []string) string {
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, shellescape.Quote(binary))
	for _, arg := range args {
		quoted = append(quoted, shellescape.Quote(arg))
	}
	return strings.Join(quoted, " ")
}

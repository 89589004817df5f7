package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"chapterize/ffmpeg"
	"chapterize/models"
)

// ErrTimeout is returned when a command runs longer than its timeout.
var ErrTimeout = errors.New("command timed out")

// Runner executes one external binary with a per-call timeout.
type Runner struct {
	Binary  string
	Timeout time.Duration
}

// Run executes args and returns the tail of the tool's output on failure.
func (r Runner) Run(ctx context.Context, args []string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return r.failure(ctx, err, string(output))
	}
	return nil
}

// RunWithProgress executes an ffmpeg invocation that writes "-progress pipe:1"
// reports to stdout and forwards every update to callback.
func (r Runner) RunWithProgress(ctx context.Context, args []string, totalSeconds float64, callback models.ProgressCallback) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", r.Binary, err)
	}

	progress := models.NewEncodingProgress(totalSeconds)
	notify(callback, progress)

	// A run that printed no progress lines is judged by its exit status alone.
	_ = ffmpeg.NewProgressParser().StreamProgress(stdout, progress, callback)
	_, _ = io.Copy(io.Discard, stdout)

	if err := cmd.Wait(); err != nil {
		progress.State = models.ProgressStateFailed
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			progress.State = models.ProgressStateCancelled
		}
		notify(callback, progress)
		return r.failure(ctx, err, stderr.String())
	}

	// ffmpeg usually reports the end itself
	if progress.State != models.ProgressStateCompleted {
		progress.Complete()
		notify(callback, progress)
	}
	return nil
}

func (r Runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.Timeout)
}

func (r Runner) failure(ctx context.Context, err error, output string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s", ErrTimeout, r.Binary, r.Timeout)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%s failed: %w (output: %s)", r.Binary, err, Tail(output, 10))
}

// Tail returns the last n non-empty lines of s.
func Tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			kept = append(kept, line)
		}
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, "\n")
}

func notify(callback models.ProgressCallback, progress *models.EncodingProgress) {
	if callback != nil {
		callback(progress)
	}
}

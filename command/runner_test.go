package command

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"chapterize/models"
)

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestRunner_Success(t *testing.T) {
	requireBinary(t, "true")

	if err := (Runner{Binary: "true"}).Run(context.Background(), nil); err != nil {
		t.Errorf("Run returned error: %v", err)
	}
}

func TestRunner_Failure(t *testing.T) {
	requireBinary(t, "sh")

	err := Runner{Binary: "sh"}.Run(context.Background(), []string{"-c", "echo broken input >&2; exit 1"})
	if err == nil {
		t.Fatal("Expected error from failing command")
	}
	if !strings.Contains(err.Error(), "sh failed") || !strings.Contains(err.Error(), "broken input") {
		t.Errorf("Expected failure with output, got: %v", err)
	}
}

func TestRunner_Timeout(t *testing.T) {
	requireBinary(t, "sleep")

	err := Runner{Binary: "sleep", Timeout: 50 * time.Millisecond}.Run(context.Background(), []string{"5"})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Expected ErrTimeout, got: %v", err)
	}
}

func TestRunner_Cancelled(t *testing.T) {
	requireBinary(t, "sleep")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := Runner{Binary: "sleep"}.Run(ctx, []string{"5"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}

func TestRunner_RunWithProgress(t *testing.T) {
	requireBinary(t, "sh")

	script := "printf 'out_time_us=1000000\\nprogress=continue\\nout_time_us=2000000\\nprogress=end\\n'"

	var updates []float64
	var last models.ProgressState
	err := Runner{Binary: "sh"}.RunWithProgress(context.Background(), []string{"-c", script}, 4, func(p *models.EncodingProgress) {
		updates = append(updates, p.Progress)
		last = p.State
	})
	if err != nil {
		t.Fatalf("RunWithProgress returned error: %v", err)
	}

	if last != models.ProgressStateCompleted {
		t.Errorf("Expected final state completed, got %s", last)
	}
	if len(updates) != 4 {
		t.Fatalf("Expected 4 updates (start, two lines, end), got %d: %v", len(updates), updates)
	}
	if updates[1] != 25 || updates[2] != 50 || updates[3] != 100 {
		t.Errorf("unexpected progress sequence: %v", updates)
	}
}

func TestRunner_RunWithProgress_Failure(t *testing.T) {
	requireBinary(t, "sh")

	var last models.ProgressState
	err := Runner{Binary: "sh"}.RunWithProgress(context.Background(), []string{"-c", "echo nope >&2; exit 3"}, 1, func(p *models.EncodingProgress) {
		last = p.State
	})
	if err == nil {
		t.Fatal("Expected error")
	}
	if last != models.ProgressStateFailed {
		t.Errorf("Expected final state failed, got %s", last)
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Errorf("Expected stderr in error, got: %v", err)
	}
}

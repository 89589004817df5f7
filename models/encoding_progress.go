package models

import (
	"fmt"
	"math"
	"time"
)

// EncodingProgress is the running state of one ffmpeg invocation, as read
// from its -progress reports or its stats line.
type EncodingProgress struct {
	CurrentTime string  // Output position as ffmpeg printed it
	Bitrate     string  // e.g. "96.0kbits/s"
	Speed       float64 // Multiple of realtime
	Size        string  // e.g. "1024kB"

	// TotalDuration is the expected length of the output in seconds. Zero
	// leaves Progress at 0.
	TotalDuration float64
	Elapsed       float64 // Seconds of audio written so far
	Progress      float64 // 0-100

	State ProgressState
}

// ProgressState is the lifecycle stage of an ffmpeg run.
type ProgressState string

const (
	ProgressStateStarting  ProgressState = "starting"
	ProgressStateEncoding  ProgressState = "encoding"
	ProgressStateCompleted ProgressState = "completed"
	ProgressStateFailed    ProgressState = "failed"
	ProgressStateCancelled ProgressState = "cancelled"
)

// ProgressCallback receives every progress update.
type ProgressCallback func(progress *EncodingProgress)

// NewEncodingProgress creates a tracker for an output of totalDuration seconds.
func NewEncodingProgress(totalDuration float64) *EncodingProgress {
	return &EncodingProgress{
		TotalDuration: totalDuration,
		State:         ProgressStateStarting,
	}
}

// CalculateProgress records the output position and derives the percentage,
// capped at 100.
func (ep *EncodingProgress) CalculateProgress(currentSeconds float64) {
	ep.Elapsed = currentSeconds
	if ep.TotalDuration > 0 {
		ep.Progress = math.Min(currentSeconds/ep.TotalDuration*100, 100)
	}
}

// Complete marks the run as finished.
func (ep *EncodingProgress) Complete() {
	ep.State = ProgressStateCompleted
	if ep.TotalDuration > 0 {
		ep.Progress = 100
	}
}

// Remaining estimates the wall-clock time left from the audio still to be
// written and the current speed. It is zero when either is unknown.
func (ep *EncodingProgress) Remaining() time.Duration {
	if ep.Speed <= 0 || ep.TotalDuration <= 0 || ep.Elapsed >= ep.TotalDuration {
		return 0
	}
	left := (ep.TotalDuration - ep.Elapsed) / ep.Speed
	return time.Duration(left * float64(time.Second)).Round(time.Second)
}

// String returns a one-line summary for logs.
func (ep *EncodingProgress) String() string {
	eta := "unknown"
	if d := ep.Remaining(); d > 0 {
		eta = d.String()
	}
	return fmt.Sprintf("%s %.1f%% | %.0fs of %.0fs | %.2fx | %s | eta %s",
		ep.State, ep.Progress, ep.Elapsed, ep.TotalDuration, ep.Speed, ep.Size, eta)
}

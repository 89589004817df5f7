package models

import (
	"fmt"
	"strings"
)

// FileProbe represents the outcome of probing a single input file.
//
// It enforces the same consistency rules for success and failure as the
// rest of the pipeline: a successful probe has a path and no error, a
// failed probe always carries the error that caused it.
//
// Use NewFileProbeSuccess or NewFileProbeFailure to create validated instances.
type FileProbe struct {
	Index           int     `json:"index"`
	Path            string  `json:"path"`
	Title           string  `json:"title"`
	DurationSeconds float64 `json:"duration_seconds"`
	Success         bool    `json:"success"`
	Error           error   `json:"error"`
}

// NewFileProbeSuccess creates a successful FileProbe with validation.
//
// Example:
//
//	fp, err := models.NewFileProbeSuccess(0, "/book/01.mp3", "Intro", 10.0)
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewFileProbeSuccess(index int, path, title string, durationSeconds float64) (*FileProbe, error) {
	fp := &FileProbe{
		Index:           index,
		Path:            path,
		Title:           title,
		DurationSeconds: durationSeconds,
		Success:         true,
	}
	if err := fp.Validate(); err != nil {
		return nil, fmt.Errorf("invalid file probe: %w", err)
	}
	return fp, nil
}

// NewFileProbeFailure creates a failed FileProbe.
//
// The title is kept when it could be read even though the duration could
// not; callers decide whether to use it as a placeholder chapter.
func NewFileProbeFailure(index int, path, title string, probeErr error) (*FileProbe, error) {
	if probeErr == nil {
		return nil, fmt.Errorf("invalid file probe: error cannot be nil for failed probe")
	}
	fp := &FileProbe{
		Index:   index,
		Path:    path,
		Title:   title,
		Success: false,
		Error:   probeErr,
	}
	if err := fp.Validate(); err != nil {
		return nil, fmt.Errorf("invalid file probe: %w", err)
	}
	return fp, nil
}

// Validate checks if the FileProbe has consistent state.
//
// Returns an error if:
//   - Path is empty or whitespace-only
//   - Success is true but Error is not nil
//   - Success is false but Error is nil
//   - Success is true but the duration is invalid
func (fp *FileProbe) Validate() error {
	if strings.TrimSpace(fp.Path) == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if fp.Success && fp.Error != nil {
		return fmt.Errorf("inconsistent state: Success is true but Error is not nil")
	}

	if !fp.Success && fp.Error == nil {
		return fmt.Errorf("failed probe must have an error")
	}

	if fp.Success {
		in := ChapterInput{SourceID: fp.Path, Title: fp.Title, DurationSeconds: fp.DurationSeconds}
		if err := in.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ChapterInput converts a successful probe into accumulator input.
func (fp *FileProbe) ChapterInput() ChapterInput {
	return ChapterInput{
		SourceID:        fp.Path,
		Title:           fp.Title,
		DurationSeconds: fp.DurationSeconds,
	}
}

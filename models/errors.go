package models

import (
	"errors"
	"fmt"
)

// Stage sentinels. A StageError matches exactly one of these with errors.Is.
var (
	// ErrProbeFailure is returned when a duration or tag probe fails, times
	// out or produces output that cannot be parsed.
	ErrProbeFailure = errors.New("probe failure")

	// ErrEncodeFailure is returned when concatenation exits non-zero or times out.
	ErrEncodeFailure = errors.New("encode failure")

	// ErrArtworkFailure is returned when the artwork tool exits non-zero or times out.
	ErrArtworkFailure = errors.New("artwork failure")
)

// Stage identifies the pipeline stage an error came from.
type Stage string

const (
	StageProbe   Stage = "probe"
	StageEncode  Stage = "encode"
	StageArtwork Stage = "artwork"
)

// StageError wraps a failure of an external tool with the stage and the
// file it was working on.
type StageError struct {
	Stage Stage
	Path  string
	Err   error
}

// NewProbeFailure wraps err as a probe failure for path.
func NewProbeFailure(path string, err error) *StageError {
	return &StageError{Stage: StageProbe, Path: path, Err: err}
}

// NewEncodeFailure wraps err as an encode failure for path.
func NewEncodeFailure(path string, err error) *StageError {
	return &StageError{Stage: StageEncode, Path: path, Err: err}
}

// NewArtworkFailure wraps err as an artwork failure for path.
func NewArtworkFailure(path string, err error) *StageError {
	return &StageError{Stage: StageArtwork, Path: path, Err: err}
}

func (e *StageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.sentinel(), e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.sentinel(), e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's stage.
func (e *StageError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *StageError) sentinel() error {
	switch e.Stage {
	case StageProbe:
		return ErrProbeFailure
	case StageEncode:
		return ErrEncodeFailure
	case StageArtwork:
		return ErrArtworkFailure
	default:
		return errors.New(string(e.Stage))
	}
}

package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileProbe_Validate(t *testing.T) {
	tests := []struct {
		name          string
		probe         FileProbe
		errorContains string
	}{
		{name: "valid success", probe: FileProbe{Path: "/a.mp3", DurationSeconds: 3, Success: true}},
		{name: "valid failure", probe: FileProbe{Path: "/a.mp3", Error: errors.New("boom")}},
		{name: "empty path", probe: FileProbe{Path: "  ", Success: true}, errorContains: "path cannot be empty"},
		{name: "success with error", probe: FileProbe{Path: "/a.mp3", Success: true, Error: errors.New("boom")}, errorContains: "inconsistent state"},
		{name: "failure without error", probe: FileProbe{Path: "/a.mp3"}, errorContains: "must have an error"},
		{name: "negative duration", probe: FileProbe{Path: "/a.mp3", Success: true, DurationSeconds: -1}, errorContains: "cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.probe.Validate()
			if tt.errorContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestNewFileProbeSuccess(t *testing.T) {
	fp, err := NewFileProbeSuccess(2, "/book/03.mp3", "Ch2", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, fp.Index)
	assert.True(t, fp.Success)
	assert.Nil(t, fp.Error)

	in := fp.ChapterInput()
	assert.Equal(t, ChapterInput{SourceID: "/book/03.mp3", Title: "Ch2", DurationSeconds: 5}, in)

	_, err = NewFileProbeSuccess(0, "", "x", 1)
	assert.Error(t, err)
}

func TestNewFileProbeFailure(t *testing.T) {
	cause := NewProbeFailure("/book/01.mp3", errors.New("ffprobe exited 1"))

	fp, err := NewFileProbeFailure(0, "/book/01.mp3", "Intro", cause)
	require.NoError(t, err)
	assert.False(t, fp.Success)
	assert.Equal(t, "Intro", fp.Title)
	assert.ErrorIs(t, fp.Error, ErrProbeFailure)

	_, err = NewFileProbeFailure(0, "/book/01.mp3", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error cannot be nil")
}

func TestStageError(t *testing.T) {
	cause := errors.New("exit status 1")

	tests := []struct {
		name     string
		err      error
		sentinel error
		others   []error
	}{
		{"probe", NewProbeFailure("/a.mp3", cause), ErrProbeFailure, []error{ErrEncodeFailure, ErrArtworkFailure}},
		{"encode", NewEncodeFailure("/out.m4a", cause), ErrEncodeFailure, []error{ErrProbeFailure, ErrArtworkFailure}},
		{"artwork", NewArtworkFailure("/out.m4a", cause), ErrArtworkFailure, []error{ErrProbeFailure, ErrEncodeFailure}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("pipeline: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.ErrorIs(t, wrapped, cause)
			for _, other := range tt.others {
				assert.NotErrorIs(t, wrapped, other)
			}

			var stageErr *StageError
			require.ErrorAs(t, wrapped, &stageErr)
			assert.Equal(t, Stage(tt.name), stageErr.Stage)
			assert.Contains(t, stageErr.Error(), "exit status 1")
		})
	}
}

func TestStageError_NoPath(t *testing.T) {
	err := NewEncodeFailure("", errors.New("timeout"))
	assert.Equal(t, "encode failure: timeout", err.Error())
}

package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChapterInput_Validate(t *testing.T) {
	tests := []struct {
		name          string
		input         ChapterInput
		wantError     bool
		errorContains string
	}{
		{name: "valid", input: ChapterInput{SourceID: "01.mp3", Title: "Intro", DurationSeconds: 10}},
		{name: "zero duration", input: ChapterInput{SourceID: "01.mp3", DurationSeconds: 0}},
		{name: "empty title is allowed", input: ChapterInput{SourceID: "01.mp3", Title: "", DurationSeconds: 1.5}},
		{name: "negative", input: ChapterInput{DurationSeconds: -0.001}, wantError: true, errorContains: "cannot be negative"},
		{name: "NaN", input: ChapterInput{DurationSeconds: math.NaN()}, wantError: true, errorContains: "must be finite"},
		{name: "+Inf", input: ChapterInput{DurationSeconds: math.Inf(1)}, wantError: true, errorContains: "must be finite"},
		{name: "-Inf", input: ChapterInput{DurationSeconds: math.Inf(-1)}, wantError: true, errorContains: "must be finite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewChapterInput(t *testing.T) {
	in, err := NewChapterInput("/book/01.mp3", "Intro", 10)
	require.NoError(t, err)
	assert.Equal(t, "/book/01.mp3", in.SourceID)
	assert.Equal(t, "Intro", in.Title)
	assert.Equal(t, 10.0, in.DurationSeconds)

	in, err = NewChapterInput("/book/02.mp3", "Ch1", -1)
	require.Error(t, err)
	assert.Nil(t, in)
	assert.Contains(t, err.Error(), "invalid chapter input")
}

func TestChapterRecord_Width(t *testing.T) {
	assert.Equal(t, int64(0), ChapterRecord{StartUnits: 5, EndUnits: 5}.Width())
	assert.Equal(t, int64(10_000_000_000), ChapterRecord{StartUnits: 0, EndUnits: 10_000_000_000}.Width())
}

func TestTagsFromSource(t *testing.T) {
	raw := map[string]string{
		"artist":    "Jane Author",
		"date":      "",
		"album":     "ignored",
		"publisher": "Acme",
	}

	tags := TagsFromSource(raw)

	require.NotNil(t, tags.Artist)
	assert.Equal(t, "Jane Author", *tags.Artist)
	assert.Nil(t, tags.AlbumArtist)
	require.NotNil(t, tags.Date, "present but empty tags are kept")
	assert.Equal(t, "", *tags.Date)
	require.NotNil(t, tags.Publisher)
	assert.Equal(t, "Acme", *tags.Publisher)
	assert.Empty(t, tags.Title)
	assert.Empty(t, tags.Genre)
}

func TestSome(t *testing.T) {
	p := Some("x")
	require.NotNil(t, p)
	assert.Equal(t, "x", *p)
}

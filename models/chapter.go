// Package models provides core data structures for the chapterize system.
package models

import (
	"fmt"
	"math"
)

// ChapterInput is the per-file input to chapter accumulation.
//
// One ChapterInput is produced for every probed audio file, in playback
// order. DurationSeconds must already carry any calibration multiplier
// for the probe strategy that measured it.
type ChapterInput struct {
	SourceID        string  `json:"source_id"`
	Title           string  `json:"title"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// NewChapterInput creates a validated ChapterInput.
//
// Example:
//
//	in, err := models.NewChapterInput("01.mp3", "Intro", 10.0)
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewChapterInput(sourceID, title string, durationSeconds float64) (*ChapterInput, error) {
	in := &ChapterInput{
		SourceID:        sourceID,
		Title:           title,
		DurationSeconds: durationSeconds,
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chapter input: %w", err)
	}
	return in, nil
}

// Validate checks that the duration is a non-negative finite number.
//
// Titles are not validated: an empty title is a legal chapter title.
func (c *ChapterInput) Validate() error {
	if math.IsNaN(c.DurationSeconds) || math.IsInf(c.DurationSeconds, 0) {
		return fmt.Errorf("duration_seconds must be finite, got %v", c.DurationSeconds)
	}
	if c.DurationSeconds < 0 {
		return fmt.Errorf("duration_seconds cannot be negative, got %v", c.DurationSeconds)
	}
	return nil
}

// ChapterRecord is a chapter with a closed integer time range.
//
// StartUnits and EndUnits are expressed in a fixed unit (nanoseconds unless
// a different time base is configured). Consecutive records never share an
// instant: the next record starts one unit after the previous one ends.
type ChapterRecord struct {
	Title      string `json:"title"`
	StartUnits int64  `json:"start_units"`
	EndUnits   int64  `json:"end_units"`
}

// Width returns the number of units covered by the record, excluding the
// closing unit.
func (r ChapterRecord) Width() int64 {
	return r.EndUnits - r.StartUnits
}

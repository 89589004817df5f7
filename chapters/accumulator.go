// Package chapters turns per-file durations into contiguous chapter ranges.
package chapters

import (
	"errors"
	"fmt"
	"math"

	"chapterize/models"
)

const (
	// Nanoseconds is the default time base of FFMETADATA chapters.
	Nanoseconds int64 = 1_000_000_000

	// Milliseconds is the TIMEBASE=1/1000 scale some tools emit.
	Milliseconds int64 = 1_000
)

// ErrInvalidInput is wrapped by every precondition failure of the accumulator.
var ErrInvalidInput = errors.New("invalid chapter input")

// Accumulator converts an ordered stream of chapter inputs into chapter
// records with a running cursor.
//
// Each record starts at the cursor and ends durationUnits later; the cursor
// then advances to end+1, so consecutive chapters never share an instant.
// A zero-length input still yields a record and still advances the cursor
// by one unit.
type Accumulator struct {
	unitsPerSecond int64
	cursor         int64
	records        []models.ChapterRecord
}

// NewAccumulator creates an Accumulator for the given time scale.
func NewAccumulator(unitsPerSecond int64) (*Accumulator, error) {
	if unitsPerSecond <= 0 {
		return nil, fmt.Errorf("%w: units per second must be positive, got %d", ErrInvalidInput, unitsPerSecond)
	}
	return &Accumulator{
		unitsPerSecond: unitsPerSecond,
		records:        []models.ChapterRecord{},
	}, nil
}

// Add appends the record for in and returns it.
//
// A negative, NaN or infinite duration is rejected without changing the
// accumulator's state.
func (a *Accumulator) Add(in models.ChapterInput) (models.ChapterRecord, error) {
	if err := in.Validate(); err != nil {
		return models.ChapterRecord{}, fmt.Errorf("%w: %s: %v", ErrInvalidInput, in.SourceID, err)
	}

	scaled := math.Round(in.DurationSeconds * float64(a.unitsPerSecond))
	if scaled >= float64(math.MaxInt64-a.cursor) {
		return models.ChapterRecord{}, fmt.Errorf("%w: %s: duration %.3fs overflows the time scale",
			ErrInvalidInput, in.SourceID, in.DurationSeconds)
	}
	durationUnits := int64(scaled)

	record := models.ChapterRecord{
		Title:      in.Title,
		StartUnits: a.cursor,
		EndUnits:   a.cursor + durationUnits,
	}
	a.records = append(a.records, record)
	a.cursor = record.EndUnits + 1

	return record, nil
}

// Cursor returns the start position of the next chapter.
func (a *Accumulator) Cursor() int64 {
	return a.cursor
}

// Records returns a copy of the records accumulated so far.
func (a *Accumulator) Records() []models.ChapterRecord {
	out := make([]models.ChapterRecord, len(a.records))
	copy(out, a.records)
	return out
}

// Accumulate converts inputs into chapter records in one forward pass.
//
// Example:
//
//	records, err := chapters.Accumulate([]models.ChapterInput{
//	    {SourceID: "01.mp3", Title: "Intro", DurationSeconds: 10},
//	    {SourceID: "02.mp3", Title: "Ch1", DurationSeconds: 20.5},
//	}, chapters.Nanoseconds)
//	// records[0] = {Intro 0 10000000000}
//	// records[1] = {Ch1 10000000001 30500000001}
func Accumulate(inputs []models.ChapterInput, unitsPerSecond int64) ([]models.ChapterRecord, error) {
	acc, err := NewAccumulator(unitsPerSecond)
	if err != nil {
		return nil, err
	}

	for i, in := range inputs {
		if _, err := acc.Add(in); err != nil {
			return nil, fmt.Errorf("chapter %d: %w", i+1, err)
		}
	}

	return acc.Records(), nil
}

// Validate checks a chapter sequence for contiguity and ordering.
//
// The first record must start at 0, every record must end at or after its
// start, and each record must start exactly one unit after the previous one
// ends. An empty sequence is valid.
func Validate(records []models.ChapterRecord) error {
	for i, r := range records {
		if r.StartUnits < 0 {
			return fmt.Errorf("chapter %d starts before zero: %d", i+1, r.StartUnits)
		}
		if r.Width() < 0 {
			return fmt.Errorf("chapter %d ends before it starts: start %d, end %d", i+1, r.StartUnits, r.EndUnits)
		}
	}

	if len(records) > 0 && records[0].StartUnits != 0 {
		return fmt.Errorf("first chapter must start at 0, got %d", records[0].StartUnits)
	}

	for i := 0; i < len(records)-1; i++ {
		currentEnd := records[i].EndUnits
		nextStart := records[i+1].StartUnits

		if nextStart <= currentEnd {
			return fmt.Errorf("chapters %d and %d overlap: chapter %d ends at %d, chapter %d starts at %d",
				i+1, i+2, i+1, currentEnd, i+2, nextStart)
		}
		if nextStart != currentEnd+1 {
			return fmt.Errorf("gap between chapters %d and %d: chapter %d ends at %d, chapter %d starts at %d",
				i+1, i+2, i+1, currentEnd, i+2, nextStart)
		}
	}

	return nil
}

// TotalSeconds returns the playback length covered by records.
func TotalSeconds(records []models.ChapterRecord, unitsPerSecond int64) float64 {
	if len(records) == 0 || unitsPerSecond <= 0 {
		return 0
	}
	return float64(records[len(records)-1].EndUnits) / float64(unitsPerSecond)
}

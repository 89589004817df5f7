package probe

import (
	"fmt"
	"strings"

	"chapterize/models"
)

// FailurePolicy decides what happens to files whose duration could not be read.
type FailurePolicy string

const (
	// PolicySkip drops the file from both the audio and the chapter list,
	// keeping chapter timing consistent with the audio.
	PolicySkip FailurePolicy = "skip"

	// PolicyPlaceholder keeps the file with a zero-length chapter. Chapters
	// after it start earlier than their audio.
	PolicyPlaceholder FailurePolicy = "placeholder"

	// PolicyAbort fails the run on the first such file.
	PolicyAbort FailurePolicy = "abort"
)

// Policies lists the accepted policy names.
func Policies() []string {
	return []string{string(PolicySkip), string(PolicyPlaceholder), string(PolicyAbort)}
}

// ParsePolicy converts a configuration value into a FailurePolicy.
func ParsePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicySkip, PolicyPlaceholder, PolicyAbort:
		return p, nil
	case "":
		return PolicySkip, nil
	default:
		return "", fmt.Errorf("unknown probe failure policy %q (valid: %s)", s, strings.Join(Policies(), ", "))
	}
}

// Selection is the outcome of applying a FailurePolicy to probe results.
type Selection struct {
	// Paths are the files to concatenate, in order.
	Paths []string
	// Inputs are the chapter inputs, one per entry in Paths.
	Inputs []models.ChapterInput
	// Skipped and Placeholders list the failed probes by how they were handled.
	Skipped      []*models.FileProbe
	Placeholders []*models.FileProbe
}

// Failed returns the number of files whose duration could not be read.
func (s *Selection) Failed() int {
	return len(s.Skipped) + len(s.Placeholders)
}

// Select applies policy to probes. With PolicyAbort the first failed probe's
// error is returned.
func Select(probes []*models.FileProbe, policy FailurePolicy) (*Selection, error) {
	sel := &Selection{
		Paths:  make([]string, 0, len(probes)),
		Inputs: make([]models.ChapterInput, 0, len(probes)),
	}

	for _, fp := range probes {
		if fp.Success {
			sel.Paths = append(sel.Paths, fp.Path)
			sel.Inputs = append(sel.Inputs, fp.ChapterInput())
			continue
		}

		switch policy {
		case PolicyAbort:
			return nil, fp.Error
		case PolicyPlaceholder:
			sel.Paths = append(sel.Paths, fp.Path)
			sel.Inputs = append(sel.Inputs, models.ChapterInput{SourceID: fp.Path, Title: fp.Title})
			sel.Placeholders = append(sel.Placeholders, fp)
		default:
			sel.Skipped = append(sel.Skipped, fp)
		}
	}

	return sel, nil
}

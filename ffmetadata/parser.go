package ffmetadata

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"chapterize/models"
)

// Parse reads a document written in the FFMETADATA1 grammar.
//
// Lines starting with ';' or '#' are comments, "[NAME]" opens a section
// and everything else is split at the first '='. Global keys outside the
// tag set known to AudiobookTags are ignored, as are [STREAM] sections.
// Values are taken verbatim, mirroring Write.
func Parse(r io.Reader) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &Document{}
	var (
		section   string
		current   *chapterState
		lineNo    int
		sawHeader bool
	)

	flush := func() error {
		if current == nil {
			return nil
		}
		record, timeBase, err := current.finish()
		if err != nil {
			return err
		}
		if doc.TimeBase == 0 {
			doc.TimeBase = timeBase
		} else if doc.TimeBase != timeBase {
			return fmt.Errorf("chapter at line %d: mixed time bases 1/%d and 1/%d", current.line, doc.TimeBase, timeBase)
		}
		doc.Chapters = append(doc.Chapters, record)
		current = nil
		return nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if !sawHeader {
			if line != Header {
				return nil, fmt.Errorf("line %d: expected %q header, got %q", lineNo, Header, line)
			}
			sawHeader = true
			continue
		}

		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if err := flush(); err != nil {
				return nil, err
			}
			section = line
			if section == ChapterSection {
				current = &chapterState{line: lineNo}
			}
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected key=value, got %q", lineNo, line)
		}

		switch section {
		case "":
			if doc.Tags == nil {
				doc.Tags = &models.AudiobookTags{}
			}
			setTag(doc.Tags, key, value)
		case ChapterSection:
			if err := current.set(key, value, lineNo); err != nil {
				return nil, err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	if !sawHeader {
		return nil, fmt.Errorf("empty metadata document")
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if doc.Chapters == nil {
		doc.Chapters = []models.ChapterRecord{}
	}
	if doc.TimeBase == 0 {
		doc.TimeBase = DefaultTimeBase
	}
	return doc, nil
}

// ParseFile reads the document at path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

func setTag(tags *models.AudiobookTags, key, value string) {
	switch key {
	case "title":
		tags.Title = value
	case "comment":
		tags.Comment = value
	case "artist":
		tags.Artist = models.Some(value)
	case "album_artist":
		tags.AlbumArtist = models.Some(value)
	case "genre":
		tags.Genre = value
	case "date":
		tags.Date = models.Some(value)
	case "publisher":
		tags.Publisher = models.Some(value)
	}
}

// chapterState collects the keys of one [CHAPTER] block.
type chapterState struct {
	line     int
	title    string
	start    *int64
	end      *int64
	timeBase int64
}

func (c *chapterState) set(key, value string, lineNo int) error {
	switch key {
	case "START", "END":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid %s %q: %w", lineNo, key, value, err)
		}
		if key == "START" {
			c.start = &n
		} else {
			c.end = &n
		}
	case "TIMEBASE":
		tb, err := parseTimeBase(value)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		c.timeBase = tb
	case "title":
		c.title = value
	}
	return nil
}

func (c *chapterState) finish() (models.ChapterRecord, int64, error) {
	if c.start == nil || c.end == nil {
		return models.ChapterRecord{}, 0, fmt.Errorf("chapter at line %d: START and END are required", c.line)
	}
	timeBase := c.timeBase
	if timeBase == 0 {
		timeBase = DefaultTimeBase
	}
	return models.ChapterRecord{Title: c.title, StartUnits: *c.start, EndUnits: *c.end}, timeBase, nil
}

// parseTimeBase parses "1/N" into N.
func parseTimeBase(value string) (int64, error) {
	num, den, ok := strings.Cut(value, "/")
	if !ok || num != "1" {
		return 0, fmt.Errorf("unsupported TIMEBASE %q, expected 1/N", value)
	}
	n, err := strconv.ParseInt(den, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid TIMEBASE %q", value)
	}
	return n, nil
}

// Package ffmetadata reads and writes ffmpeg's FFMETADATA1 text format.
//
// See https://ffmpeg.org/ffmpeg-formats.html#Metadata-1. Values are written
// verbatim: the format's backslash escaping is not applied, so values that
// contain a line break (or '=', ';', '#' for strict ffmpeg readers) cannot be
// represented faithfully. Use Warnings to detect them before writing.
package ffmetadata

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"chapterize/models"
)

const (
	// Header is the mandatory first line of every document.
	Header = ";FFMETADATA1"

	// ChapterSection opens a chapter block.
	ChapterSection = "[CHAPTER]"

	// DefaultTimeBase is the scale ffmpeg assumes when TIMEBASE is absent.
	DefaultTimeBase int64 = 1_000_000_000
)

// Document is the content of a metadata file.
//
// A nil Tags writes no global section at all, which is what chapter-only
// documents (such as converted label tracks) need. TimeBase is the number of
// chapter units per second; zero means nanoseconds.
type Document struct {
	Tags     *models.AudiobookTags
	Chapters []models.ChapterRecord
	TimeBase int64
}

// Write serializes doc to w.
//
// Global tags are emitted in a fixed order (title, comment, artist,
// album_artist, genre, date, publisher); optional tags that are nil are
// skipped. Each chapter is preceded by a blank line and a [CHAPTER] header.
func Write(w io.Writer, doc Document) error {
	bw := bufio.NewWriter(w)

	lines := make([]string, 0, 8+len(doc.Chapters)*5)
	lines = append(lines, Header)

	if t := doc.Tags; t != nil {
		lines = append(lines, pair("title", t.Title), pair("comment", t.Comment))
		lines = appendOptional(lines, "artist", t.Artist)
		lines = appendOptional(lines, "album_artist", t.AlbumArtist)
		lines = append(lines, pair("genre", t.Genre))
		lines = appendOptional(lines, "date", t.Date)
		lines = appendOptional(lines, "publisher", t.Publisher)
	}

	timeBase := ""
	if doc.TimeBase > 0 && doc.TimeBase != DefaultTimeBase {
		timeBase = "TIMEBASE=1/" + strconv.FormatInt(doc.TimeBase, 10)
	}

	for _, ch := range doc.Chapters {
		lines = append(lines, "", ChapterSection)
		if timeBase != "" {
			lines = append(lines, timeBase)
		}
		lines = append(lines,
			"START="+strconv.FormatInt(ch.StartUnits, 10),
			"END="+strconv.FormatInt(ch.EndUnits, 10),
			pair("title", ch.Title),
		)
	}

	for _, line := range lines {
		if _, err := bw.WriteString(line); err != nil {
			return fmt.Errorf("failed to write metadata: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("failed to write metadata: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush metadata: %w", err)
	}
	return nil
}

// Render returns doc as a string.
func Render(doc Document) (string, error) {
	var sb strings.Builder
	if err := Write(&sb, doc); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteFile writes doc to path, creating parent directories as needed.
func WriteFile(path string, doc Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}

	if err := Write(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Warnings lists every value in doc the format cannot represent verbatim.
func Warnings(doc Document) []string {
	var warnings []string
	check := func(where, key, value string) {
		if err := CheckValue(value); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s %s: %v", where, key, err))
		}
	}

	if t := doc.Tags; t != nil {
		check("global", "title", t.Title)
		check("global", "comment", t.Comment)
		check("global", "genre", t.Genre)
		optional := []struct {
			key   string
			value *string
		}{
			{"artist", t.Artist},
			{"album_artist", t.AlbumArtist},
			{"date", t.Date},
			{"publisher", t.Publisher},
		}
		for _, o := range optional {
			if o.value != nil {
				check("global", o.key, *o.value)
			}
		}
	}

	for i, ch := range doc.Chapters {
		check(fmt.Sprintf("chapter %d", i+1), "title", ch.Title)
	}

	return warnings
}

// CheckValue reports whether value would corrupt or be reinterpreted in a
// document written without escaping.
func CheckValue(value string) error {
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("value contains a line break")
	}
	if strings.ContainsAny(value, "=;#\\") {
		return fmt.Errorf("value contains a character ffmpeg treats as special (= ; # \\)")
	}
	return nil
}

func pair(key, value string) string {
	return key + "=" + value
}

func appendOptional(lines []string, key string, value *string) []string {
	if value == nil {
		return lines
	}
	return append(lines, pair(key, *value))
}

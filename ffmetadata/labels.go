package ffmetadata

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"chapterize/models"
)

// ParseLabels reads an Audacity label export into chapter records.
//
// Each line is "start<TAB>end<TAB>title" with times in seconds. Times are
// truncated to whole nanoseconds. Lines starting with '\' carry spectral
// selection data and are skipped, as are blank lines. The records keep the
// label boundaries as given; they are not made contiguous.
func ParseLabels(r io.Reader) ([]models.ChapterRecord, error) {
	scanner := bufio.NewScanner(r)
	records := []models.ChapterRecord{}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "\\") {
			continue
		}

		fields := strings.SplitN(line, "\t", 3)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected start<TAB>end<TAB>title, got %q", lineNo, line)
		}

		start, err := labelUnits(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid start: %w", lineNo, err)
		}
		end, err := labelUnits(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid end: %w", lineNo, err)
		}
		if end < start {
			return nil, fmt.Errorf("line %d: label ends before it starts", lineNo)
		}

		title := ""
		if len(fields) == 3 {
			title = fields[2]
		}
		records = append(records, models.ChapterRecord{Title: title, StartUnits: start, EndUnits: end})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	return records, nil
}

// ConvertLabelsFile reads the label export at src and writes a chapter-only
// document to dst. It returns the number of chapters written.
func ConvertLabelsFile(src, dst string) (int, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open labels file: %w", err)
	}
	defer f.Close()

	records, err := ParseLabels(f)
	if err != nil {
		return 0, err
	}

	if err := WriteFile(dst, Document{Chapters: records}); err != nil {
		return 0, err
	}
	return len(records), nil
}

func labelUnits(s string) (int64, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("%q is not a valid time", s)
	}
	units := seconds * float64(DefaultTimeBase)
	if units >= math.MaxInt64 {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return int64(units), nil
}

package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"chapterize/internal/timeutil"
	"chapterize/models"
)

// PrintChapters writes a table of chapter start times and titles.
func PrintChapters(w io.Writer, records []models.ChapterRecord, unitsPerSecond int64) {
	fmt.Fprintf(w, "  %-4s %-14s %-14s %s\n", "#", "Start", "End", "Title")
	for i, r := range records {
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(w, "  %-4d %-14s %-14s %s\n", i+1,
			timeutil.FormatUnits(r.StartUnits, unitsPerSecond),
			timeutil.FormatUnits(r.EndUnits, unitsPerSecond),
			title)
	}
}

// PrintSummary writes the final report box.
func PrintSummary(w io.Writer, r *Report) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w, "                     ✅ SUCCESS!")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	if r.OutputPath != "" {
		fmt.Fprintf(w, "  Output:      %s\n", r.OutputPath)
		if info, err := os.Stat(r.OutputPath); err == nil {
			fmt.Fprintf(w, "  Size:        %.2f MB\n", float64(info.Size())/(1024*1024))
		}
	}
	fmt.Fprintf(w, "  Metadata:    %s\n", r.MetadataPath)
	fmt.Fprintf(w, "  Files:       %d\n", r.Files)
	fmt.Fprintf(w, "  Chapters:    %d\n", len(r.Chapters))
	fmt.Fprintf(w, "  Duration:    %s\n", timeutil.FormatSeconds(r.TotalSeconds))
	if r.OutputPath != "" {
		fmt.Fprintf(w, "  Artwork:     %v\n", r.Artwork)
	}
	for _, fp := range r.Skipped {
		fmt.Fprintf(w, "  Skipped:     %s\n", filepath.Base(fp.Path))
	}
	for _, fp := range r.Placeholders {
		fmt.Fprintf(w, "  Placeholder: %s\n", filepath.Base(fp.Path))
	}
	fmt.Fprintf(w, "  Total time:  %.2fs\n", r.Elapsed.Seconds())
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}

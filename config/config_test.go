package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Source != "." {
		t.Errorf("Expected source '.', got %s", cfg.Source)
	}
	if cfg.Output != "audiobook" {
		t.Errorf("Expected output 'audiobook', got %s", cfg.Output)
	}
	if cfg.Extension != "m4b" {
		t.Errorf("Expected extension 'm4b', got %s", cfg.Extension)
	}
	if cfg.Genre != "Audiobook" {
		t.Errorf("Expected genre 'Audiobook', got %s", cfg.Genre)
	}
	if cfg.Artwork.Path != "cover.jpg" {
		t.Errorf("Expected artwork 'cover.jpg', got %s", cfg.Artwork.Path)
	}
	if cfg.Probe.Calibration != 1.0 {
		t.Errorf("Expected calibration 1.0, got %g", cfg.Probe.Calibration)
	}
	if cfg.Probe.OnFailure != "skip" {
		t.Errorf("Expected on_failure 'skip', got %s", cfg.Probe.OnFailure)
	}
	if cfg.Chapters.UnitsPerSecond != 1_000_000_000 {
		t.Errorf("Expected nanosecond units, got %d", cfg.Chapters.UnitsPerSecond)
	}
	if cfg.Probe.Timeout != 30*time.Second {
		t.Errorf("Expected probe timeout 30s, got %s", cfg.Probe.Timeout)
	}
	if !cfg.Interactive {
		t.Error("Expected interactive to be true")
	}
}

func TestCopy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Encode.Filters = []string{"loudnorm"}
	copied := cfg.Copy()

	copied.Probe.Workers = 99
	copied.Encode.Codec = "copy"
	copied.Encode.Filters[0] = "volume=2"

	if cfg.Probe.Workers == 99 || cfg.Encode.Codec == "copy" {
		t.Error("Copy shares nested state with the original")
	}
	if cfg.Encode.Filters[0] != "loudnorm" {
		t.Error("Copy shares the filter list with the original")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		extension string
		inputExt  string
		wantExt   string
		wantInput string
	}{
		{"already clean", "m4b", ".mp3", "m4b", ".mp3"},
		{"dotted extension", ".M4A", ".MP3", "m4a", ".mp3"},
		{"bare input extension", "m4b", "mp3", "m4b", ".mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Extension = tt.extension
			cfg.InputExt = tt.inputExt
			cfg.Normalize()

			if cfg.Extension != tt.wantExt {
				t.Errorf("Expected extension %s, got %s", tt.wantExt, cfg.Extension)
			}
			if cfg.InputExt != tt.wantInput {
				t.Errorf("Expected input extension %s, got %s", tt.wantInput, cfg.InputExt)
			}
		})
	}
}

func TestPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Source = "/books/dune"

	if got := cfg.OutputPath(); got != "/books/dune/audiobook.m4b" {
		t.Errorf("OutputPath() = %s", got)
	}

	cfg.OutputDir = "/out"
	cfg.Output = "Dune"
	cfg.Extension = "m4a"
	if got := cfg.OutputPath(); got != "/out/Dune.m4a" {
		t.Errorf("OutputPath() = %s", got)
	}

	if got := cfg.ArtworkPath(); got != filepath.Join("/books/dune", "cover.jpg") {
		t.Errorf("ArtworkPath() = %s", got)
	}
	cfg.Artwork.Path = "/art/front.png"
	if got := cfg.ArtworkPath(); got != "/art/front.png" {
		t.Errorf("ArtworkPath() = %s", got)
	}
	cfg.Artwork.Path = ""
	if got := cfg.ArtworkPath(); got != "" {
		t.Errorf("ArtworkPath() = %s, want empty", got)
	}

	if got := cfg.MetadataPath("/tmp/work"); got != "/tmp/work/FFMETADATA.txt" {
		t.Errorf("MetadataPath() = %s", got)
	}
	cfg.MetadataFile = "/keep/meta.txt"
	if got := cfg.MetadataPath("/tmp/work"); got != "/keep/meta.txt" {
		t.Errorf("MetadataPath() = %s", got)
	}
}

func TestPrintConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Source = "/books/dune"
	cfg.Title = "Dune"
	cfg.Encode.SampleRate = 44100
	cfg.Encode.Filters = []string{"loudnorm", "volume=0.8"}

	var buf bytes.Buffer
	cfg.PrintConfig(&buf)
	out := buf.String()

	for _, want := range []string{"Effective Configuration", "/books/dune/audiobook.m4b", "Title:          Dune", "Calibration:  1", "Tool:         atomicparsley", "Sample Rate:  44100 Hz", "Filters:      loudnorm, volume=0.8"} {
		if !strings.Contains(out, want) {
			t.Errorf("PrintConfig output missing %q:\n%s", want, out)
		}
	}
}

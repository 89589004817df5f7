package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("chapterize", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Failed to parse flags %v: %v", args, err)
	}
	return fs
}

func TestMergeFromFlags_OnlyChangedFlagsOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Encode.Bitrate = "64k" // as if from a config file
	cfg.Title = "From File"

	fs := newFlagSet(t, "--source", "/books", "-o", "Dune")
	if err := cfg.MergeFromFlags(fs); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Source != "/books" {
		t.Errorf("Expected source '/books', got '%s'", cfg.Source)
	}
	if cfg.Output != "Dune" {
		t.Errorf("Expected output 'Dune', got '%s'", cfg.Output)
	}
	if cfg.Encode.Bitrate != "64k" {
		t.Errorf("Unchanged flag overrode bitrate: got '%s'", cfg.Encode.Bitrate)
	}
	if cfg.Title != "From File" {
		t.Errorf("Unchanged flag overrode title: got '%s'", cfg.Title)
	}
}

func TestMergeFromFlags_AllKinds(t *testing.T) {
	cfg := DefaultConfig()
	fs := newFlagSet(t,
		"--calibration", "1.02",
		"-j", "3",
		"--units-per-second", "1000",
		"--probe-timeout", "5s",
		"--encode-timeout", "1h",
		"--artwork-timeout", "10s",
		"--use-embedded-artwork",
		"--interactive=false",
		"--duration-strategy", "audiometa",
		"--on-failure", "abort",
		"--ext", "m4a",
		"--sample-rate", "22050",
		"--channels", "2",
		"--filter", "loudnorm",
		"--filter", "volume=0.5",
	)

	if err := cfg.MergeFromFlags(fs); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Probe.Calibration != 1.02 {
		t.Errorf("Expected calibration 1.02, got %g", cfg.Probe.Calibration)
	}
	if cfg.Probe.Workers != 3 {
		t.Errorf("Expected workers 3, got %d", cfg.Probe.Workers)
	}
	if cfg.Chapters.UnitsPerSecond != 1000 {
		t.Errorf("Expected 1000 units per second, got %d", cfg.Chapters.UnitsPerSecond)
	}
	if cfg.Probe.Timeout != 5*time.Second || cfg.Encode.Timeout != time.Hour || cfg.Artwork.Timeout != 10*time.Second {
		t.Errorf("Unexpected timeouts: %s %s %s", cfg.Probe.Timeout, cfg.Encode.Timeout, cfg.Artwork.Timeout)
	}
	if !cfg.Artwork.UseEmbedded {
		t.Error("Expected use embedded artwork")
	}
	if cfg.Interactive {
		t.Error("Expected interactive to be false")
	}
	if cfg.Probe.DurationStrategy != "audiometa" || cfg.Probe.OnFailure != "abort" || cfg.Extension != "m4a" {
		t.Errorf("Unexpected strings: %s %s %s", cfg.Probe.DurationStrategy, cfg.Probe.OnFailure, cfg.Extension)
	}
	if cfg.Encode.SampleRate != 22050 || cfg.Encode.Channels != 2 {
		t.Errorf("Unexpected encode settings: %d Hz %d channels", cfg.Encode.SampleRate, cfg.Encode.Channels)
	}
	if len(cfg.Encode.Filters) != 2 || cfg.Encode.Filters[1] != "volume=0.5" {
		t.Errorf("Unexpected filters: %v", cfg.Encode.Filters)
	}
}

func TestMergeFromFlags_VerboseRaisesLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.MergeFromFlags(newFlagSet(t, "-v")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", cfg.Log.Level)
	}

	cfg = DefaultConfig()
	if err := cfg.MergeFromFlags(newFlagSet(t, "-v", "--log-level", "warn")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Explicit log level should win, got '%s'", cfg.Log.Level)
	}
}

func TestLoad_Priority(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom.yaml")
	configContent := `source: ` + tmpDir + `
output: FromFile
encode:
  bitrate: 64k
  codec: aac
probe:
  workers: 2
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create temp config: %v", err)
	}

	fs := newFlagSet(t, "--config", configPath, "-o", "FromFlag", "--ext", ".M4A")
	cfg, err := LoadConfig(fs)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	// CLI > file
	if cfg.Output != "FromFlag" {
		t.Errorf("Expected output 'FromFlag' (from CLI), got '%s'", cfg.Output)
	}
	// file > defaults
	if cfg.Encode.Bitrate != "64k" {
		t.Errorf("Expected bitrate '64k' (from file), got '%s'", cfg.Encode.Bitrate)
	}
	if cfg.Probe.Workers != 2 {
		t.Errorf("Expected workers 2 (from file), got %d", cfg.Probe.Workers)
	}
	// defaults
	if cfg.Genre != "Audiobook" {
		t.Errorf("Expected genre 'Audiobook' (default), got '%s'", cfg.Genre)
	}
	// normalized
	if cfg.Extension != "m4a" {
		t.Errorf("Expected normalized extension 'm4a', got '%s'", cfg.Extension)
	}
}

func TestLoad_AutoWorkersAndNoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load(newFlagSet(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Probe.Workers <= 0 {
		t.Errorf("Expected auto-detected workers, got %d", cfg.Probe.Workers)
	}
	if cfg.Output != "audiobook" {
		t.Errorf("Expected default output, got '%s'", cfg.Output)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	fs := newFlagSet(t, "--source", filepath.Join(t.TempDir(), "missing"))
	if _, err := LoadConfig(fs); err == nil {
		t.Fatal("Expected validation error for missing source")
	}

	fs = newFlagSet(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := LoadConfig(fs); err == nil {
		t.Fatal("Expected error for missing config file")
	}
}

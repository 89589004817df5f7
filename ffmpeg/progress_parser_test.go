package ffmpeg

import (
	"strings"
	"testing"

	"chapterize/models"
)

func TestNewProgressParser(t *testing.T) {
	parser := NewProgressParser()

	if parser == nil {
		t.Fatal("NewProgressParser returned nil")
	}
	if parser.sizeRegex == nil || parser.timeRegex == nil || parser.bitrateRegex == nil || parser.speedRegex == nil {
		t.Error("regular expressions not initialized")
	}
}

func TestProgressParser_ParseLine(t *testing.T) {
	parser := NewProgressParser()

	tests := []struct {
		name     string
		line     string
		updated  bool
		expected func(*models.EncodingProgress) bool
	}{
		{
			name:    "stats line",
			line:    "size=     128kB time=00:00:01.00 bitrate= 128.0kbits/s speed=2.00x",
			updated: true,
			expected: func(p *models.EncodingProgress) bool {
				return p.Size == "128kB" &&
					p.CurrentTime == "00:00:01.00" &&
					p.Bitrate == "128.0kbits/s" &&
					p.Speed == 2.00
			},
		},
		{
			name:    "progress out_time_us",
			line:    "out_time_us=15000000",
			updated: true,
			expected: func(p *models.EncodingProgress) bool {
				return p.Elapsed == 15 && p.CurrentTime == "00:00:15.00"
			},
		},
		{
			name:    "progress out_time",
			line:    "out_time=00:00:03.500000",
			updated: true,
			expected: func(p *models.EncodingProgress) bool {
				return p.CurrentTime == "00:00:03.500000" && p.Elapsed == 3.5
			},
		},
		{
			name:    "progress total_size",
			line:    "total_size=2097152",
			updated: true,
			expected: func(p *models.EncodingProgress) bool {
				return p.Size == "2048kB"
			},
		},
		{
			name:    "progress bitrate",
			line:    "bitrate=  96.0kbits/s",
			updated: true,
			expected: func(p *models.EncodingProgress) bool {
				return p.Bitrate == "96.0kbits/s"
			},
		},
		{
			name:    "progress speed",
			line:    "speed=42.1x",
			updated: true,
			expected: func(p *models.EncodingProgress) bool {
				return p.Speed == 42.1
			},
		},
		{
			name:     "progress marker",
			line:     "progress=continue",
			expected: func(p *models.EncodingProgress) bool { return true },
		},
		{
			name:    "progress end",
			line:    "progress=end",
			updated: true,
			expected: func(p *models.EncodingProgress) bool {
				return p.State == models.ProgressStateCompleted && p.Progress == 100
			},
		},
		{
			name:     "not available",
			line:     "out_time=N/A",
			expected: func(p *models.EncodingProgress) bool { return p.CurrentTime == "" },
		},
		{
			name:     "negative start",
			line:     "out_time_us=-577014000",
			expected: func(p *models.EncodingProgress) bool { return p.Elapsed == 0 },
		},
		{
			name:     "non-matching line",
			line:     "This is not a progress line",
			expected: func(p *models.EncodingProgress) bool { return true },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progress := models.NewEncodingProgress(30.0)

			updated := parser.ParseLine(tt.line, progress)
			if updated != tt.updated {
				t.Errorf("ParseLine(%q) = %v; want %v", tt.line, updated, tt.updated)
			}
			if !tt.expected(progress) {
				t.Errorf("Progress not updated correctly for line: %s", tt.line)
			}
		})
	}
}

func TestProgressParser_ParseLine_ProgressCalculation(t *testing.T) {
	parser := NewProgressParser()
	progress := models.NewEncodingProgress(30.0)

	parser.ParseLine("out_time=00:00:15.000000", progress)

	if progress.Progress < 49.0 || progress.Progress > 51.0 {
		t.Errorf("Expected progress around 50%%, got %.2f%%", progress.Progress)
	}
}

func TestProgressParser_StreamProgress(t *testing.T) {
	parser := NewProgressParser()
	progress := models.NewEncodingProgress(10.0)

	output := strings.Join([]string{
		"bitrate=  96.0kbits/s",
		"total_size=65536",
		"out_time_us=4000000",
		"out_time=00:00:04.000000",
		"speed=20.0x",
		"progress=continue",
		"bitrate=  96.1kbits/s",
		"total_size=131072",
		"out_time_us=10000000",
		"out_time=00:00:10.000000",
		"speed=25.0x",
		"progress=end",
	}, "\n")

	callbackCount := 0
	err := parser.StreamProgress(strings.NewReader(output), progress, func(p *models.EncodingProgress) {
		callbackCount++
	})
	if err != nil {
		t.Errorf("StreamProgress returned error: %v", err)
	}

	if callbackCount != 11 {
		t.Errorf("Expected 11 callback calls, got %d", callbackCount)
	}
	if progress.Progress != 100 {
		t.Errorf("Expected progress 100, got %.2f", progress.Progress)
	}
	if progress.Speed != 25.0 {
		t.Errorf("Expected speed 25.0, got %.2f", progress.Speed)
	}
	if progress.State != models.ProgressStateCompleted {
		t.Errorf("Expected state completed, got %s", progress.State)
	}
}

func TestProgressParser_StreamProgress_WithoutCallback(t *testing.T) {
	parser := NewProgressParser()
	progress := models.NewEncodingProgress(30.0)

	err := parser.StreamProgress(strings.NewReader("out_time_us=1000000\n"), progress, nil)
	if err != nil {
		t.Errorf("StreamProgress should not error without callback: %v", err)
	}
	if progress.Elapsed != 1 {
		t.Errorf("Expected elapsed 1, got %f", progress.Elapsed)
	}
}

func TestProgressParser_StreamProgress_EmptyInput(t *testing.T) {
	parser := NewProgressParser()
	progress := models.NewEncodingProgress(30.0)

	if err := parser.StreamProgress(strings.NewReader(""), progress, nil); err == nil {
		t.Error("StreamProgress should error on empty input")
	}
}

func TestProgressParser_RealFFmpegStatsLine(t *testing.T) {
	parser := NewProgressParser()
	progress := models.NewEncodingProgress(1.0)

	line := "size=       0kB time=00:00:00.98 bitrate=   0.4kbits/s speed=1.96x"

	if !parser.ParseLine(line, progress) {
		t.Fatal("Should update progress from real ffmpeg line")
	}
	if progress.Speed != 1.96 {
		t.Errorf("Expected speed 1.96, got %.2f", progress.Speed)
	}
	if progress.Size != "0kB" {
		t.Errorf("Expected size 0kB, got %s", progress.Size)
	}
	if progress.Bitrate != "0.4kbits/s" {
		t.Errorf("Expected bitrate 0.4kbits/s, got %s", progress.Bitrate)
	}
}

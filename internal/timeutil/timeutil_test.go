package timeutil

import "testing"

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		name     string
		seconds  float64
		expected string
	}{
		{"Zero", 0, "00:00:00.00"},
		{"One second", 1, "00:00:01.00"},
		{"One minute", 60, "00:01:00.00"},
		{"One hour", 3600, "01:00:00.00"},
		{"Complex time", 3661, "01:01:01.00"},
		{"Large time", 86400, "24:00:00.00"},
		{"90 seconds", 90, "00:01:30.00"},
		{"Max hour digit", 359999, "99:59:59.00"},
		{"Fractional seconds", 30.53, "00:00:30.53"},
		{"Sub-second", 0.5, "00:00:00.50"},
		{"Multiple decimals", 1.999, "00:00:02.00"}, // Rounds to 2.00
		{"Rounding check", 1.995, "00:00:02.00"},    // Also rounds up
		{"No rounding", 1.994, "00:00:01.99"},       // Rounds down
		{"Minute with fraction", 90.75, "00:01:30.75"},
		{"Hour with fraction", 3661.123, "01:01:01.12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatSeconds(tt.seconds)
			if result != tt.expected {
				t.Errorf("FormatSeconds(%.3f) = %s; want %s", tt.seconds, result, tt.expected)
			}
		})
	}
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		name           string
		units          int64
		unitsPerSecond int64
		expected       string
	}{
		{"Zero", 0, 1_000_000_000, "00:00:00.000"},
		{"Ten seconds", 10_000_000_000, 1_000_000_000, "00:00:10.000"},
		{"One unit later", 10_000_000_001, 1_000_000_000, "00:00:10.000"},
		{"Fraction", 30_500_000_001, 1_000_000_000, "00:00:30.500"},
		{"Hours", 3_723_456_000_000, 1_000_000_000, "01:02:03.456"},
		{"Milliseconds", 61_250, 1000, "00:01:01.250"},
		{"Negative", -1500, 1000, "-00:00:01.500"},
		{"Invalid scale", 10, 0, "??:??:??.???"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatUnits(tt.units, tt.unitsPerSecond)
			if result != tt.expected {
				t.Errorf("FormatUnits(%d, %d) = %s; want %s", tt.units, tt.unitsPerSecond, result, tt.expected)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    float64
		expectError bool
	}{
		{"Zero", "00:00:00", 0, false},
		{"One minute", "00:01:00", 60, false},
		{"Complex", "01:23:45", 5025, false},
		{"Decimals", "00:00:30.53", 30.53, false},
		{"Microseconds", "00:00:01.000000", 1, false},
		{"Invalid", "invalid", 0, true},
		{"Two parts", "12:34", 0, true},
		{"N/A", "N/A", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseClock(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("ParseClock(%s) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClock(%s) unexpected error: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("ParseClock(%s) = %f; want %f", tt.input, result, tt.expected)
			}
		})
	}
}

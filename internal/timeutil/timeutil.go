// Package timeutil converts between seconds, chapter units and the clock
// strings ffmpeg reads and prints.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatSeconds converts seconds to HH:MM:SS.ss as printed by ffmpeg.
//
// Example:
//
//	FormatSeconds(0)      // "00:00:00.00"
//	FormatSeconds(90)     // "00:01:30.00"
//	FormatSeconds(3661)   // "01:01:01.00"
//	FormatSeconds(30.53)  // "00:00:30.53"
func FormatSeconds(seconds float64) string {
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%05.2f", hours, minutes, secs)
}

// FormatUnits renders a chapter position as HH:MM:SS.mmm.
//
// The value is truncated to whole milliseconds so that a chapter ending at
// 10000000000 ns and the next starting one unit later print the same way.
func FormatUnits(units, unitsPerSecond int64) string {
	if unitsPerSecond <= 0 {
		return "??:??:??.???"
	}
	sign := ""
	if units < 0 {
		sign = "-"
		units = -units
	}

	whole := units / unitsPerSecond
	millis := (units % unitsPerSecond) * 1000 / unitsPerSecond

	return fmt.Sprintf("%s%02d:%02d:%02d.%03d", sign, whole/3600, (whole%3600)/60, whole%60, millis)
}

// ParseClock converts HH:MM:SS[.fraction] to seconds.
func ParseClock(s string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}

	hours, err1 := strconv.ParseFloat(parts[0], 64)
	minutes, err2 := strconv.ParseFloat(parts[1], 64)
	seconds, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}

	return hours*3600 + minutes*60 + seconds, nil
}

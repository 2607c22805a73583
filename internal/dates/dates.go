// Package dates provides the canonical timestamp formats used everywhere a
// record or note carries a derived time value.
//
// This package exists to avoid duplicating format strings across:
// - system-value derivation (created_at, updated_at)
// - front matter round-tripping
// - index sort comparisons
//
// The datetime layout is fixed-width UTC with microsecond precision, so
// lexicographic order equals chronological order.
package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// DatetimeLayout is the canonical instant format: always UTC, always a
	// six-digit fraction, 27 characters.
	DatetimeLayout = "2006-01-02T15:04:05.000000Z"

	// DatestampLayout is the canonical date-only format.
	DatestampLayout = "2006-01-02"
)

var datestampRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// FormatDatetime renders t in the canonical instant format.
func FormatDatetime(t time.Time) string {
	return t.UTC().Format(DatetimeLayout)
}

// FormatDatestamp renders t in the canonical date-only format.
func FormatDatestamp(t time.Time) string {
	return t.UTC().Format(DatestampLayout)
}

// IsValidDatestamp checks if a string is a valid YYYY-MM-DD date.
func IsValidDatestamp(s string) bool {
	if !datestampRegex.MatchString(s) {
		return false
	}
	_, err := time.Parse(DatestampLayout, s)
	return err == nil
}

// ParseDatestamp parses a YYYY-MM-DD date.
func ParseDatestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !IsValidDatestamp(s) {
		return time.Time{}, fmt.Errorf("invalid date: %q", s)
	}
	return time.Parse(DatestampLayout, s)
}

// ParseDatetime parses an instant in one of the accepted formats.
//
// Accepted formats:
// - the canonical layout (preferred; what the tool itself writes)
// - RFC3339 (e.g. 2025-01-01T10:30:00Z, 2025-06-15T14:00:00+05:00)
// - YYYY-MM-DDTHH:MM:SS
// - YYYY-MM-DDTHH:MM
func ParseDatetime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("invalid datetime: empty")
	}

	formats := []string{
		DatetimeLayout,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime: %q", s)
}

// IsValidDatetime checks if a string parses as an instant.
func IsValidDatetime(s string) bool {
	_, err := ParseDatetime(s)
	return err == nil
}

package admission

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxSanitizedLength is the rune length Sanitize truncates to.
	MaxSanitizedLength = 5000
	maxEmailLength     = 254
	minGuestCount      = 1
	maxGuestCount      = 10000
)

var (
	angleBracketRegex = regexp.MustCompile(`[<>]`)
	javascriptRegex   = regexp.MustCompile(`(?i)javascript:`)
	eventHandlerRegex = regexp.MustCompile(`(?i)on\w+\s*=`)

	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^[0-9+\-\s()]{7,20}$`)

	minEventDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	maxEventDate = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
)

// Sanitize strips angle brackets, the javascript: scheme and inline event
// handler prefixes, trims whitespace and truncates to MaxSanitizedLength
// runes. Removing one pattern can expose another ("javajavascript:script:"),
// so the pass repeats until nothing changes; every changing pass shortens
// the string, which bounds the loop. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	for {
		next := sanitizeOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func sanitizeOnce(s string) string {
	s = angleBracketRegex.ReplaceAllString(s, "")
	s = javascriptRegex.ReplaceAllString(s, "")
	s = eventHandlerRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	return truncateRunes(s, MaxSanitizedLength)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// ValidEmail reports whether s looks like a deliverable address.
func ValidEmail(s string) bool {
	return len(s) <= maxEmailLength && emailRegex.MatchString(s)
}

// ValidPhone accepts 7 to 20 digits, spaces and + - ( ).
func ValidPhone(s string) bool {
	return phoneRegex.MatchString(s)
}

// ParseEventDate parses YYYY-MM-DD or RFC 3339 and returns the calendar
// date (UTC midnight) if it falls within [1900-01-01, 2100-01-01).
func ParseEventDate(s string) (time.Time, bool) {
	var (
		t   time.Time
		err error
	)
	if t, err = time.Parse(time.DateOnly, s); err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return time.Time{}, false
		}
	}
	date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(minEventDate) || !date.Before(maxEventDate) {
		return time.Time{}, false
	}
	return date, true
}

// ValidDate reports whether s is an acceptable event date.
func ValidDate(s string) bool {
	_, ok := ParseEventDate(s)
	return ok
}

// ValidGuestCount reports whether s is an integer between 1 and 10000.
func ValidGuestCount(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n >= minGuestCount && n <= maxGuestCount
}

// ParseGuestCount normalizes the raw guestCount JSON value. Absent, null
// and empty-string values are "not provided" (provided == false). Numbers
// and numeric strings are returned in their decimal text form.
func ParseGuestCount(raw json.RawMessage) (value string, provided bool, valid bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false, true
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", true, false
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return "", false, true
		}
		return s, true, ValidGuestCount(s)
	default:
		var num json.Number
		if err := json.Unmarshal(raw, &num); err != nil {
			return "", true, false
		}
		if n, err := num.Int64(); err == nil {
			s := strconv.FormatInt(n, 10)
			return s, true, ValidGuestCount(s)
		}
		f, err := num.Float64()
		if err != nil || f != float64(int64(f)) {
			return "", true, false
		}
		s := strconv.FormatInt(int64(f), 10)
		return s, true, ValidGuestCount(s)
	}
}

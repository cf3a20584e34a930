package ledger

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var numericPrefix = regexp.MustCompile(`^-?(\d+(\.\d+)?|\.\d+)`)

// ParseAmount parses an amount such as "1,234.56" or "Rs.500.00".
// Anything that is not a digit, a dot or a minus sign is dropped and the
// longest numeric prefix is read. Unparseable input yields 0.
func ParseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	cleaned = trimCurrencyDots(cleaned)

	prefix := numericPrefix.FindString(cleaned)
	if prefix == "" {
		return 0
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0
	}
	return f
}

// trimCurrencyDots drops dots left over from abbreviations like "Rs." so
// that ".500.00" reads as 500.00 while ".5" stays 0.5.
func trimCurrencyDots(s string) string {
	for strings.HasPrefix(s, ".") {
		rest := s[1:]
		if rest != "" && isDigit(rest[0]) && !strings.Contains(rest, ".") {
			break
		}
		s = rest
	}
	return s
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// timestampLayouts carry a zone; localLayouts are read in the bucket's location.
var (
	timestampLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05Z0700",
		"2006-01-02 15:04:05Z07:00",
		time.RFC1123Z,
		time.RFC1123,
	}
	localLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
		"2006/01/02",
		"02-01-2006",
		"02/01/2006",
		"02.01.2006",
		"02-01-06",
		"02/01/06",
		"02-Jan-2006",
		"02-Jan-06",
		"02 Jan 2006",
		"02 Jan 06",
		"02Jan2006",
		"02Jan06",
		"2 Jan 2006",
		"02 January 2006",
		"Jan 2, 2006",
		"Jan 02, 2006",
		"January 2, 2006",
		"Mon Jan 2 2006",
		"02-01-2006 15:04:05",
		"02/01/2006 15:04:05",
		"02-Jan-2006 15:04:05",
	}
)

// ParseTime reads a timestamp or free-form transaction date. Values without
// a zone are interpreted in loc.
func ParseTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), true
		}
	}
	normalized := titleCaseWords(s)
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, normalized, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// titleCaseWords rewrites letter runs as "Jan" so upper-case month names
// from bank SMS ("15-JAN-25") match Go's layouts.
func titleCaseWords(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		prevLetter = false
		b.WriteRune(r)
	}
	return b.String()
}

// MonthKey returns the "YYYY-MM" bucket for a record. createdAt wins when it
// parses; otherwise the extracted transaction date is tried.
func MonthKey(createdAt, dateStr string, loc *time.Location) (string, time.Time, bool) {
	if t, ok := ParseTime(createdAt, loc); ok {
		return monthKeyOf(t), t, true
	}
	if t, ok := ParseTime(dateStr, loc); ok {
		return monthKeyOf(t), t, true
	}
	return "", time.Time{}, false
}

// CurrentMonthKey is the bucket key of now in loc.
func CurrentMonthKey(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return monthKeyOf(now.In(loc))
}

func monthKeyOf(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

var monthAbbrev = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ValidMonthKey reports whether key is a zero-padded "YYYY-MM".
func ValidMonthKey(key string) bool {
	if len(key) != 7 || key[4] != '-' || !isDigit(key[5]) || !isDigit(key[6]) {
		return false
	}
	_, _, ok := splitMonthKey(key)
	return ok
}

// FormatMonthLabel renders "2025-03" as "Mar 2025". Malformed keys give "".
func FormatMonthLabel(monthKey string) string {
	year, month, ok := splitMonthKey(monthKey)
	if !ok {
		return ""
	}
	return monthAbbrev[month-1] + " " + year
}

func splitMonthKey(key string) (string, int, bool) {
	year, m, found := strings.Cut(key, "-")
	if !found || year == "" {
		return "", 0, false
	}
	for i := 0; i < len(year); i++ {
		if !isDigit(year[i]) {
			return "", 0, false
		}
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return "", 0, false
	}
	return year, month, true
}

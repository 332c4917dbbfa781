package invoice

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrNoDate is returned when a string contains no parseable calendar date.
var ErrNoDate = errors.New("no date found")

// monthNames maps lower-case English and German month names and abbreviations to months.
var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January, "januar": time.January, "jänner": time.January, "jän": time.January,
	"february": time.February, "feb": time.February, "februar": time.February,
	"march": time.March, "mar": time.March, "märz": time.March, "maerz": time.March, "mär": time.March, "mrz": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May, "mai": time.May,
	"june": time.June, "jun": time.June, "juni": time.June,
	"july": time.July, "jul": time.July, "juli": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October, "oktober": time.October, "okt": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December, "dezember": time.December, "dez": time.December,
}

var monthPattern = buildMonthPattern()

// dateTokenRe finds date-shaped tokens inside arbitrary text. Alternatives:
//
//	1-3   Y-M-D
//	4-6   D.M.Y, D/M/Y, D-M-Y
//	7-9   D[.] MonthName Y, D-MonthName-Y
//	10-12 MonthName D, Y
var dateTokenRe = regexp.MustCompile(`(?i)` +
	`(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})` +
	`|(\d{1,2})[./-](\d{1,2})[./-](\d{4}|\d{2})` +
	`|(\d{1,2})\.?[\s-]*(` + monthPattern + `)\.?[\s-]*(\d{4}|\d{2})` +
	`|\b(` + monthPattern + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\.?,?\s+(\d{4})`)

// fallbackDateRe is the whole-document scan used when no keyword line yields a date.
var fallbackDateRe = regexp.MustCompile(`(?i)` +
	`\b\d{1,2}[./-]\d{1,2}[./-](?:\d{4}|\d{2})\b` +
	`|\b\d{1,2}-(?:` + monthPattern + `)-(?:\d{4}|\d{2})\b` +
	`|\b(?:` + monthPattern + `)\s+\d{1,2},\s+\d{4}\b`)

func buildMonthPattern() string {
	names := make([]string, 0, len(monthNames))
	for name := range monthNames {
		names = append(names, name)
	}
	// longest first so "märz" is preferred over "mär"
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	for i, name := range names {
		names[i] = regexp.QuoteMeta(name)
	}
	return strings.Join(names, "|")
}

// ExtractDate returns the most likely invoice date in text.
//
// Lines are scanned top to bottom; a line is parsed when it contains one of the
// keywords (case-insensitive). If no keyword line yields a date, the first
// date-shaped substring of the whole text is parsed instead.
func ExtractDate(text string, keywords []string) (time.Time, bool) {
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, keyword := range keywords {
			if keyword == "" || !strings.Contains(lower, strings.ToLower(keyword)) {
				continue
			}
			if date, err := ParseFuzzyDate(line); err == nil {
				return date, true
			}
			// the same line parses the same way for every other keyword
			break
		}
	}

	if match := fallbackDateRe.FindString(text); match != "" {
		if date, err := ParseFuzzyDate(match); err == nil {
			return date, true
		}
	}

	return time.Time{}, false
}

// ParseFuzzyDate returns the first valid calendar date found in s, ignoring
// surrounding text. Numeric dates are read day first.
func ParseFuzzyDate(s string) (time.Time, error) {
	for _, idx := range dateTokenRe.FindAllStringSubmatchIndex(s, -1) {
		start, end := idx[0], idx[1]
		if start > 0 && isDigit(s[start-1]) || end < len(s) && isDigit(s[end]) {
			continue
		}

		group := func(n int) string {
			if idx[2*n] < 0 {
				return ""
			}
			return s[idx[2*n]:idx[2*n+1]]
		}

		var year, day int
		var month time.Month
		switch {
		case group(1) != "":
			year, month, day = atoi(group(1)), time.Month(atoi(group(2))), atoi(group(3))
		case group(4) != "":
			day, month, year = atoi(group(4)), time.Month(atoi(group(5))), atoi(group(6))
			if month > 12 && day <= 12 {
				day, month = int(month), time.Month(day)
			}
		case group(7) != "":
			day, month, year = atoi(group(7)), monthNames[strings.ToLower(group(8))], atoi(group(9))
		case group(10) != "":
			month, day, year = monthNames[strings.ToLower(group(10))], atoi(group(11)), atoi(group(12))
		default:
			continue
		}

		if date, ok := makeDate(expandYear(year, len(yearDigits(idx, s))), month, day); ok {
			return date, nil
		}
	}

	return time.Time{}, ErrNoDate
}

// yearDigits returns the matched year text of whichever alternative matched.
func yearDigits(idx []int, s string) string {
	for _, n := range []int{1, 6, 9, 12} {
		if idx[2*n] >= 0 {
			return s[idx[2*n]:idx[2*n+1]]
		}
	}
	return ""
}

// expandYear turns two-digit years into 1970 to 2069.
func expandYear(year, digits int) int {
	if digits != 2 {
		return year
	}
	if year < 70 {
		return 2000 + year
	}
	return 1900 + year
}

func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 || year < 1 {
		return time.Time{}, false
	}
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 31.02. into March; reject instead
	if date.Day() != day || date.Month() != month {
		return time.Time{}, false
	}
	return date, true
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

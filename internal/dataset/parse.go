package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// dateLayouts are tried in order for textual dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"1/2/2006",
	"1-2-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"01-02-06",
	"2006",
}

// Text renders a cell value as trimmed text. Numbers are printed without
// trailing zeros; nil becomes "".
func Text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case time.Time:
		return val.Format("2006-01-02")
	default:
		return ""
	}
}

// ParseNumber reads a numeric cell permissively. Strings are parsed from
// their longest leading numeric prefix, so "96.2 min" yields 96.2 and
// "1,200" yields 1. ok is false when no number can be read.
func ParseNumber(v any) (f float64, ok bool) {
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case string:
		prefix := numericPrefix(strings.TrimSpace(val))
		if prefix == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(prefix, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// numericPrefix returns the longest prefix of s of the form
// [+-]digits[.digits][(e|E)[+-]digits].
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if frac > 0 || digits > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return ""
	}
	// Exponent only counts when followed by at least one digit.
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		start := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > start {
			i = j
		}
	}
	return strings.TrimSuffix(s[:i], ".")
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// ParseDate reads a launch date cell. Numbers are Excel serial dates.
// Strings are matched against dateLayouts first, so a bare "1957" is a
// year; other numeric strings fall back to serials.
func ParseDate(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, !val.IsZero()
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		if serial, err := strconv.ParseFloat(s, 64); err == nil {
			return fromSerial(serial)
		}
		return time.Time{}, false
	default:
		serial, ok := ParseNumber(val)
		if !ok {
			return time.Time{}, false
		}
		return fromSerial(serial)
	}
}

func fromSerial(serial float64) (time.Time, bool) {
	if serial <= 0 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// TimestampLayout is the ISO-8601 form every recognized date is rewritten to.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// maxSecondsDigits separates epoch seconds from epoch milliseconds.
const maxSecondsDigits = 10

// IsDateKey reports whether a canonical key holds a date: one of its
// camelCase or snake_case words is "date", or it ends in an "At" word.
func IsDateKey(key string) bool {
	words := keyWords(key)
	for _, w := range words {
		if w == "date" {
			return true
		}
	}
	return len(words) > 1 && words[len(words)-1] == "at"
}

// keyWords splits key at underscores and lower-to-upper case transitions and
// lowercases the parts.
func keyWords(key string) []string {
	var (
		words []string
		start int
	)
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c == '_' || c == '-':
			if i > start {
				words = append(words, strings.ToLower(key[start:i]))
			}
			start = i + 1
		case i > start && isUpper(c) && !isUpper(key[i-1]):
			words = append(words, strings.ToLower(key[start:i]))
			start = i
		}
	}
	if start < len(key) {
		words = append(words, strings.ToLower(key[start:]))
	}
	return words
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

// CanonicalizeDate rewrites v as a UTC ISO-8601 timestamp.
//
// All-digit values are epoch seconds when they have at most ten digits and
// epoch milliseconds otherwise. Any other string goes through a generic date
// parser. ok is false when v could not be interpreted; callers keep the
// original value in that case.
func CanonicalizeDate(v any) (string, bool) {
	switch val := v.(type) {
	case json.Number:
		return canonicalizeString(val.String())
	case string:
		return canonicalizeString(val)
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) || math.IsNaN(val) {
			return "", false
		}
		return canonicalizeString(strconv.FormatFloat(val, 'f', 0, 64))
	case int:
		return canonicalizeString(strconv.Itoa(val))
	case int64:
		return canonicalizeString(strconv.FormatInt(val, 10))
	case time.Time:
		return val.UTC().Format(TimestampLayout), true
	default:
		return "", false
	}
}

func canonicalizeString(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	if digits := strings.TrimSuffix(s, ".0"); isDigits(digits) {
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return "", false
		}
		if len(digits) <= maxSecondsDigits {
			return time.Unix(n, 0).UTC().Format(TimestampLayout), true
		}
		return time.UnixMilli(n).UTC().Format(TimestampLayout), true
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return "", false
	}
	return t.UTC().Format(TimestampLayout), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// displayValue renders a raw value the way it is kept when it cannot be parsed.
func displayValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

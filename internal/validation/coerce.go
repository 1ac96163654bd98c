package validation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/cloo-solutions/jobspy-mcp/internal/domain"
)

var truthyStrings = map[string]bool{
	"true": true,
	"yes":  true,
	"1":    true,
	"on":   true,
	"y":    true,
}

// isUnset treats nil, empty strings, empty lists and numeric zero as absent.
func isUnset(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case float64:
		return t == 0
	case float32:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	}
	return false
}

func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	}
	return "", false
}

// asInt reports numeric=false for strings that are not numbers, in which
// case the caller keeps the field default.
func asInt(v any) (n int, numeric bool, ferr *domain.FieldError) {
	var f float64
	switch t := v.(type) {
	case int:
		return t, true, nil
	case int64:
		return int(t), true, nil
	case float32:
		f = float64(t)
	case float64:
		f = t
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false, nil
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		if i, err := strconv.Atoi(s); err == nil {
			return i, true, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, nil
		}
		f = parsed
	case bool:
		return 0, false, invalid("must be a number, got boolean")
	default:
		return 0, false, invalid("must be a number")
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, nil
	}
	if f != math.Trunc(f) {
		return 0, false, invalid("must be an integer, got %v", f)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false, invalid("out of range: %v", f)
	}
	return int(f), true, nil
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return truthyStrings[strings.ToLower(strings.TrimSpace(t))]
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	}
	return false
}

// asStringList accepts "a, b" or ["a", "b"]; blanks are dropped.
func asStringList(v any) ([]string, bool) {
	var parts []string
	switch t := v.(type) {
	case string:
		parts = strings.Split(t, ",")
	case []string:
		parts = t
	case []any:
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			parts = append(parts, strings.Split(s, ",")...)
		}
	default:
		return nil, false
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

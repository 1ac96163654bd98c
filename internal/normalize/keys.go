package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CanonicalKey converts a scraper field name to camelCase ("job_url" becomes
// "jobUrl"). Keys without separators are returned unchanged so already
// camelCased input is stable.
func CanonicalKey(key string) string {
	if !strings.ContainsAny(key, "_- ") {
		return key
	}

	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	if len(parts) == 0 {
		return key
	}

	var b strings.Builder
	b.Grow(len(key))
	for i, p := range parts {
		p = strings.ToLower(p)
		if i == 0 {
			b.WriteString(p)
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(p[size:])
	}
	return b.String()
}

// RenameKeys returns a copy of rec with every key canonicalized. When two
// keys collapse to the same name the one that was already canonical wins.
func RenameKeys(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		if CanonicalKey(k) == k {
			out[k] = v
		}
	}
	for k, v := range rec {
		ck := CanonicalKey(k)
		if ck == k {
			continue
		}
		if _, exists := out[ck]; !exists {
			out[ck] = v
		}
	}
	return out
}

package utils

import "strings"

func Ptr[T any](v T) *T {
	return &v
}

// ValueOr dereferences v, returning fallback when v is nil.
func ValueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}

// FirstString extracts a message from a decoded JSON value that is either a string or a list whose
// first string entry is used. Blank strings do not count.
func FirstString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return s, true
		}
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				return s, true
			}
		}
	case []any:
		for _, item := range t {
			if s, ok := FirstString(item); ok {
				return s, true
			}
		}
	}
	return "", false
}

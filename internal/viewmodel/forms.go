package viewmodel

import (
	"sort"
	"strings"
)

// Blank reports whether s is empty or whitespace only.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Optional returns nil for blank input and the trimmed text otherwise.
func Optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// SplitNames splits comma separated text, trimming items and dropping
// empty ones.
func SplitNames(text string) []string {
	var out []string
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FormatAttribute renders an attribute in its key=value form.
func FormatAttribute(key, value string) string {
	return key + "=" + value
}

// ParseAttribute splits s on its first '='. Both halves must be non-empty.
func ParseAttribute(s string) (key, value string, ok bool) {
	key, value, found := strings.Cut(s, "=")
	if !found || key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}

// AttributesToMap converts key=value strings into the map sent on the wire.
// Malformed entries are skipped and keys and values are trimmed.
func AttributesToMap(attrs []string) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		k, v, ok := ParseAttribute(a)
		if !ok {
			continue
		}
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

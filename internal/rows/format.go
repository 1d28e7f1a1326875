// Package rows projects RPC records into table rows with precomputed display
// strings.
package rows

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dp-desktop/client/internal/models"
)

// TimestampLayout is the display layout for timestamps, in local time.
const TimestampLayout = "2006-01-02 15:04:05"

// NotAvailable is shown for absent values.
const NotAvailable = "N/A"

// ListSeparator joins list columns.
const ListSeparator = ", "

// FormatTime formats t in the host timezone.
func FormatTime(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// FormatTimestamp formats a wire timestamp in the host timezone.
func FormatTimestamp(ts models.Timestamp) string {
	return FormatTime(ts.Time())
}

func formatOptionalTimestamp(ts *models.Timestamp) string {
	if ts == nil {
		return NotAvailable
	}
	return FormatTimestamp(*ts)
}

// FormatSamplePeriod renders a sample period given in nanoseconds.
func FormatSamplePeriod(nanos int64) string {
	switch {
	case nanos == 0:
		return "Irregular"
	case nanos < 1_000_000:
		return fmt.Sprintf("%d ns", nanos)
	case nanos < 1_000_000_000:
		return fmt.Sprintf("%d ms", nanos/1_000_000)
	default:
		return fmt.Sprintf("%d s", nanos/1_000_000_000)
	}
}

// JoinList joins a list column for plain rendering.
func JoinList(items []string) string {
	return strings.Join(items, ListSeparator)
}

// SplitList parses a joined list column back into its items.
func SplitList(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	parts := strings.Split(joined, ListSeparator)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FormatAttributes renders attributes as sorted key=value pairs.
func FormatAttributes(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + attrs[k]
	}
	return JoinList(pairs)
}

// Truncate shortens s to max runes, marking the cut with "...".
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

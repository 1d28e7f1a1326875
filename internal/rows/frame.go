package rows

import (
	"fmt"
	"strings"

	"github.com/dp-desktop/client/internal/models"
)

const sampleValues = 3

// FrameDetails renders the text shown by the calculation frame dialog.
func FrameDetails(f models.DataFrame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Frame: %s\n", f.Name)
	fmt.Fprintf(&b, "Timestamps: %d\n", len(f.Timestamps))
	if n := len(f.Timestamps); n > 0 {
		fmt.Fprintf(&b, "First: %s\n", FormatTimestamp(f.Timestamps[0]))
		fmt.Fprintf(&b, "Last: %s\n", FormatTimestamp(f.Timestamps[n-1]))
	}
	fmt.Fprintf(&b, "Columns: %d\n", len(f.Columns))
	for _, c := range f.Columns {
		samples := make([]string, 0, sampleValues)
		for i, v := range c.Values {
			if i == sampleValues {
				break
			}
			samples = append(samples, v.Sample())
		}
		line := fmt.Sprintf("  %s (%d values)", c.Name, len(c.Values))
		if len(samples) > 0 {
			line += ": " + JoinList(samples)
			if len(c.Values) > sampleValues {
				line += ", ..."
			}
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// FrameSummary names up to three columns of f.
func FrameSummary(f models.DataFrame) string {
	names := f.ColumnNames()
	name := f.Name
	if name == "" {
		name = "Unnamed Frame"
	}
	if len(names) == 0 {
		return name + " (no columns)"
	}
	if len(names) <= sampleValues {
		return name + ": " + JoinList(names)
	}
	return fmt.Sprintf("%s: %s, ... (%d columns)", name, JoinList(names[:sampleValues]), len(names))
}

package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dp-desktop/client/internal/models"
)

type columnKind int

const (
	kindBool columnKind = iota
	kindInt
	kindDouble
	kindString
)

var (
	boolTrue  = map[string]bool{"ON": true, "TRUE": true, "YES": true}
	boolFalse = map[string]bool{"OFF": true, "FALSE": true, "NO": true}
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04",
}

// ParseTimestamp accepts date-time text (local time unless a zone is given)
// or epoch seconds with an optional fraction.
func ParseTimestamp(raw string) (models.Timestamp, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return models.TimestampOf(t), nil
		}
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil && secs >= 0 {
		whole := int64(secs)
		nanos := int64((secs - float64(whole)) * 1e9)
		return models.Timestamp{EpochSeconds: whole, Nanoseconds: nanos}, nil
	}
	return models.Timestamp{}, fmt.Errorf("invalid timestamp %q", raw)
}

func cellKind(s string) columnKind {
	u := strings.ToUpper(s)
	if boolTrue[u] || boolFalse[u] {
		return kindBool
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return kindInt
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return kindDouble
	}
	return kindString
}

// inferKind picks the narrowest kind that holds every non-empty cell.
func inferKind(cells []string) columnKind {
	kind := columnKind(-1)
	for _, c := range cells {
		if c == "" {
			continue
		}
		k := cellKind(c)
		switch {
		case kind < 0:
			kind = k
		case kind == k:
		case (kind == kindInt && k == kindDouble) || (kind == kindDouble && k == kindInt):
			kind = kindDouble
		default:
			return kindString
		}
	}
	if kind < 0 {
		return kindString
	}
	return kind
}

func convert(s string, kind columnKind) models.DataValue {
	switch kind {
	case kindBool:
		return models.BoolValue(boolTrue[strings.ToUpper(s)])
	case kindInt:
		v, _ := strconv.ParseInt(s, 10, 64)
		return models.LongValue(v)
	case kindDouble:
		v, _ := strconv.ParseFloat(s, 64)
		return models.DoubleValue(v)
	default:
		return models.StringValue(s)
	}
}

// buildFrame converts a header row and data rows into a frame. Rows with a
// blank timestamp are skipped; short rows are padded with empty cells.
func buildFrame(name string, records [][]string) (models.DataFrame, error) {
	frame := models.DataFrame{Name: name}
	if len(records) == 0 {
		return frame, nil
	}

	header := records[0]
	if len(header) < 2 {
		return frame, fmt.Errorf("%s: header needs a timestamp column and at least one PV column", name)
	}
	pvs := make([]string, len(header)-1)
	for i, h := range header[1:] {
		h = strings.TrimSpace(h)
		if h == "" {
			return frame, fmt.Errorf("%s: column %d has no PV name", name, i+2)
		}
		pvs[i] = h
	}

	cells := make([][]string, len(pvs))
	for line, rec := range records[1:] {
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		ts, err := ParseTimestamp(rec[0])
		if err != nil {
			return frame, fmt.Errorf("%s row %d: %w", name, line+2, err)
		}
		frame.Timestamps = append(frame.Timestamps, ts)
		for i := range pvs {
			v := ""
			if i+1 < len(rec) {
				v = strings.TrimSpace(rec[i+1])
			}
			cells[i] = append(cells[i], v)
		}
	}

	for i, pv := range pvs {
		kind := inferKind(cells[i])
		values := make([]models.DataValue, len(cells[i]))
		for j, c := range cells[i] {
			values[j] = convert(c, kind)
		}
		frame.Columns = append(frame.Columns, models.DataColumn{Name: pv, Values: values})
	}
	return frame, nil
}

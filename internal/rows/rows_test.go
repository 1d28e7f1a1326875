package rows

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dp-desktop/client/internal/models"
)

func TestFormatSamplePeriod(t *testing.T) {
	cases := []struct {
		nanos int64
		want  string
	}{
		{0, "Irregular"},
		{1, "1 ns"},
		{999_999, "999999 ns"},
		{1_000_000, "1 ms"},
		{999_999_999, "999 ms"},
		{1_000_000_000, "1 s"},
		{90_000_000_000, "90 s"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatSamplePeriod(tc.nanos), "nanos=%d", tc.nanos)
	}
}

func TestFormatTimestampUsesLocalTime(t *testing.T) {
	ts := models.Timestamp{EpochSeconds: 1_700_000_000, Nanoseconds: 999_000_000}
	want := time.Unix(1_700_000_000, 0).Local().Format("2006-01-02 15:04:05")
	assert.Equal(t, want, FormatTimestamp(ts))
}

func TestAnnotationRowListColumns(t *testing.T) {
	an := models.Annotation{
		ID:            "AN-1",
		Name:          "spike",
		DataSetIDs:    []string{"DS-1", "DS-2"},
		AnnotationIDs: []string{"AN-0"},
		Tags:          []string{"beam", "vacuum"},
		Attributes:    map[string]string{"sector": "2", "mode": "test"},
		Event:         &models.EventMetadata{Description: "trip"},
		CalculationFrames: []models.DataFrame{
			{Name: "mean"}, {Name: "stddev"},
		},
	}
	row := NewAnnotationRow(an)

	assert.Equal(t, strings.Join(an.DataSetIDs, ", "), row.DataSets)
	assert.Equal(t, strings.Join(an.AnnotationIDs, ", "), row.Annotations)
	assert.Equal(t, strings.Join(an.Tags, ", "), row.Tags)
	assert.Equal(t, an.DataSetIDs, row.DataSetIDs)
	assert.Equal(t, an.AnnotationIDs, row.AnnotationIDs)
	assert.Equal(t, "mode=test, sector=2", row.Attributes)
	assert.Equal(t, "mean, stddev", row.CalculationFrames)
	assert.Equal(t, []string{"mean", "stddev"}, row.FrameNames)
	assert.Equal(t, "trip", row.Event)

	f, ok := row.CalculationFrame("stddev")
	require.True(t, ok)
	assert.Equal(t, "stddev", f.Name)
	_, ok = row.CalculationFrame("missing")
	assert.False(t, ok)
}

func TestAnnotationRowEmptyLists(t *testing.T) {
	row := NewAnnotationRow(models.Annotation{Name: "x"})
	assert.Equal(t, "", row.DataSets)
	assert.Empty(t, row.DataSetIDs)
	assert.Equal(t, "", row.Attributes)
	assert.Equal(t, "", row.Event)
}

func TestAnnotationRowKeepsIDsVerbatim(t *testing.T) {
	an := models.Annotation{
		Name:          "odd ids",
		DataSetIDs:    []string{" DS-1", "DS, 2", ""},
		AnnotationIDs: []string{"AN-0 "},
	}
	row := NewAnnotationRow(an)

	assert.Equal(t, []string{" DS-1", "DS, 2", ""}, row.DataSetIDs)
	assert.Equal(t, []string{"AN-0 "}, row.AnnotationIDs)

	row.DataSetIDs[0] = "changed"
	assert.Equal(t, " DS-1", an.DataSetIDs[0])
}

func TestSplitListInvertsJoin(t *testing.T) {
	items := []string{"DS-1", "DS-2", "DS-3"}
	assert.Equal(t, items, SplitList(JoinList(items)))
	assert.Nil(t, SplitList("  "))
}

func TestDatasetRow(t *testing.T) {
	begin := models.Timestamp{EpochSeconds: 1_700_000_000}
	end := models.Timestamp{EpochSeconds: 1_700_000_060}
	ds := models.DataSet{
		ID:   "DS-42",
		Name: "vacuum",
		DataBlocks: []models.DataBlock{
			{PvNames: []string{"p1", "p2"}, BeginTime: begin, EndTime: end},
			{PvNames: []string{"p2", "p3"}},
		},
	}
	row := NewDatasetRow(ds)

	span := FormatTimestamp(begin) + " -> " + FormatTimestamp(end)
	assert.Equal(t, "[p1, p2: "+span+"], [p2, p3: No time range]", row.Blocks)
	assert.Equal(t, []string{"p1", "p2", "p3"}, row.PvNames)
}

func TestDataSetSummary(t *testing.T) {
	assert.Equal(t, "Unnamed Dataset - No description - No data blocks", DataSetSummary(models.DataSet{}))

	ds := models.DataSet{
		Name:        "run",
		Description: "a description that is definitely longer than thirty runes",
		DataBlocks:  []models.DataBlock{{}},
	}
	assert.Equal(t, "run - a description that is definite... - No PVs: No time range", DataSetSummary(ds))
}

func TestPvInfoRow(t *testing.T) {
	first := models.Timestamp{EpochSeconds: 1_700_000_000}
	row := NewPvInfoRow(models.PvInfo{
		PvName:             "K:vac:p1",
		LastProviderID:     "provider-1",
		SamplePeriodNanos:  1_000_000,
		FirstDataTimestamp: &first,
	})
	assert.Equal(t, "1 ms", row.SamplePeriod)
	assert.Equal(t, FormatTimestamp(first), row.FirstData)
	assert.Equal(t, NotAvailable, row.LastData)
	assert.Equal(t, "provider-1", row.Provider)
	assert.False(t, row.Selected.Get())
}

func TestEventRow(t *testing.T) {
	v := models.DoubleValue(2.5)
	row := NewEventRow(models.DataEvent{EventTime: models.Timestamp{EpochSeconds: 1}, DataValue: &v})
	assert.Equal(t, "2.5", row.Value)
	assert.Equal(t, NotAvailable, NewEventRow(models.DataEvent{}).Value)
}

func TestFrameDetails(t *testing.T) {
	f := models.DataFrame{
		Name:       "mean",
		Timestamps: []models.Timestamp{{EpochSeconds: 1}, {EpochSeconds: 2}},
		Columns: []models.DataColumn{
			{Name: "x", Values: []models.DataValue{
				models.DoubleValue(1), models.DoubleValue(2), models.DoubleValue(3), models.DoubleValue(4),
			}},
			{Name: "label", Values: []models.DataValue{models.StringValue("ok")}},
		},
	}
	text := FrameDetails(f)
	assert.Contains(t, text, "Frame: mean")
	assert.Contains(t, text, "Timestamps: 2")
	assert.Contains(t, text, "  x (4 values): 1.000, 2.000, 3.000, ...")
	assert.Contains(t, text, `  label (1 values): "ok"`)
}

func TestFrameSummary(t *testing.T) {
	f := models.DataFrame{Name: "f"}
	assert.Equal(t, "f (no columns)", FrameSummary(f))
	for _, n := range []string{"a", "b", "c", "d"} {
		f.Columns = append(f.Columns, models.DataColumn{Name: n})
	}
	assert.Equal(t, "f: a, b, c, ... (4 columns)", FrameSummary(f))
}

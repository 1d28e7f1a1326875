package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dp-desktop/client/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCSVImport(t *testing.T) {
	path := writeFile(t, "run1.csv", `timestamp,pv:temp,pv:count,pv:flag,pv:label
2025-01-01 00:00:00,1.5,3,ON,a
2025-01-01 00:00:01.250,2,4,OFF,b

1735689602,2.25,,TRUE,c
`)
	res := Import(path)
	require.False(t, res.Status.IsError, res.Status.Message)
	require.Len(t, res.DataFrames, 1)

	f := res.DataFrames[0]
	assert.Equal(t, "run1", f.Name)
	require.Len(t, f.Timestamps, 3)
	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)
	assert.Equal(t, models.TimestampOf(first), f.Timestamps[0])
	assert.Equal(t, int64(250_000_000), f.Timestamps[1].Nanoseconds)
	assert.Equal(t, int64(1735689602), f.Timestamps[2].EpochSeconds)

	assert.Equal(t, []string{"pv:temp", "pv:count", "pv:flag", "pv:label"}, f.ColumnNames())
	temp, _ := f.Column("pv:temp")
	assert.Equal(t, models.DoubleValue(2), temp.Values[1])
	count, _ := f.Column("pv:count")
	assert.Equal(t, models.LongValue(3), count.Values[0])
	assert.Equal(t, models.LongValue(0), count.Values[2])
	flag, _ := f.Column("pv:flag")
	assert.Equal(t, models.BoolValue(false), flag.Values[1])
	label, _ := f.Column("pv:label")
	assert.Equal(t, models.StringValue("c"), label.Values[2])
}

func TestCSVImportBadTimestamp(t *testing.T) {
	path := writeFile(t, "bad.csv", "ts,pv\nyesterday,1\n")
	res := Import(path)
	assert.True(t, res.Status.IsError)
	assert.Contains(t, res.Status.Message, "row 2")
}

func TestCSVImportHeaderOnlyTimestamp(t *testing.T) {
	path := writeFile(t, "narrow.csv", "ts\n2025-01-01 00:00:00\n")
	res := Import(path)
	assert.True(t, res.Status.IsError)
}

func TestCSVImportEmptyFile(t *testing.T) {
	res := Import(writeFile(t, "empty.csv", ""))
	assert.True(t, res.Status.IsError)
	assert.Contains(t, res.Status.Message, "No data found")
}

func TestUnsupportedExtension(t *testing.T) {
	res := Import(writeFile(t, "notes.txt", "hello"))
	assert.True(t, res.Status.IsError)
	assert.Contains(t, res.Status.Message, "no importer")
}

func TestXLSXImportOneFramePerSheet(t *testing.T) {
	book := excelize.NewFile()
	defer book.Close()

	require.NoError(t, book.SetSheetRow("Sheet1", "A1", &[]any{"time", "S1:pv1", "S1:pv2"}))
	require.NoError(t, book.SetSheetRow("Sheet1", "A2", &[]any{"2025-01-01 00:00:00", 1.5, 10}))
	require.NoError(t, book.SetSheetRow("Sheet1", "A3", &[]any{"2025-01-01 00:00:01", 2.5, 11}))
	_, err := book.NewSheet("Empty")
	require.NoError(t, err)
	_, err = book.NewSheet("Second")
	require.NoError(t, err)
	require.NoError(t, book.SetSheetRow("Second", "A1", &[]any{"time", "S2:pv"}))
	require.NoError(t, book.SetSheetRow("Second", "A2", &[]any{"2025-01-01 00:00:00", "ok"}))

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, book.SaveAs(path))

	res := Import(path)
	require.False(t, res.Status.IsError, res.Status.Message)
	require.Len(t, res.DataFrames, 2)
	assert.Equal(t, "Sheet1", res.DataFrames[0].Name)
	assert.Equal(t, 4, res.DataFrames[0].ValueCount())
	pv2, _ := res.DataFrames[0].Column("S1:pv2")
	assert.Equal(t, models.LongValue(11), pv2.Values[1])
	assert.Equal(t, "Second", res.DataFrames[1].Name)
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	imp, err := r.ByName("CSV")
	require.NoError(t, err)
	assert.Equal(t, "csv", imp.Name())

	_, err = r.ByName("parquet")
	assert.Error(t, err)

	imp, err = r.Find("/tmp/data.XLSX")
	require.NoError(t, err)
	assert.Equal(t, "xlsx", imp.Name())
}

func TestInferKind(t *testing.T) {
	assert.Equal(t, kindInt, inferKind([]string{"1", "", "2"}))
	assert.Equal(t, kindDouble, inferKind([]string{"1", "2.5"}))
	assert.Equal(t, kindBool, inferKind([]string{"on", "OFF"}))
	assert.Equal(t, kindString, inferKind([]string{"1", "x"}))
	assert.Equal(t, kindString, inferKind([]string{"", ""}))
}

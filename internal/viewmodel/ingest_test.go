package viewmodel

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dp-desktop/client/internal/generator"
	"github.com/dp-desktop/client/internal/models"
)

func TestDataGenerationDefaults(t *testing.T) {
	f := newFixture(t)
	g := NewDataGeneration(f.env)

	assert.Equal(t, "Ready to generate data", g.Status.Get())
	assert.Equal(t, generator.TypeInteger, g.PvDataType.Get())
	assert.Equal(t, 1000, g.PvSamplePeriod.Get())
	assert.True(t, g.EndTime.Get().Equal(g.BeginTime.Get().AddDate(0, 0, 1)))
	assert.Equal(t, 0, g.BeginTime.Get().Hour())
	assert.Equal(t, []string{"1", "2", "3", "4"}, g.Provider.Attributes.SuggestedValues("sector"))
	assert.Equal(t, []string{"live", "batch"}, g.Request.Attributes.SuggestedValues("mode"))
}

func TestDataGenerationPvEntry(t *testing.T) {
	f := newFixture(t)
	g := NewDataGeneration(f.env)

	g.ShowPvEntryPanel()
	g.PvName.Set("K:vac:p1")
	assert.False(t, g.AddCurrentPvDetail())
	assert.Equal(t, "Please fill in all required PV fields", g.Status.Get())

	g.PvInitialValue.Set("10")
	g.PvMaxStep.Set("2")
	assert.True(t, g.AddCurrentPvDetail())
	assert.False(t, g.ShowPvEntry.Get())

	g.ShowPvEntryPanel()
	assert.Equal(t, "", g.PvName.Get())
	g.PvName.Set("K:vac:p1")
	g.PvInitialValue.Set("1")
	g.PvMaxStep.Set("1")
	assert.False(t, g.AddCurrentPvDetail())
	assert.Equal(t, "PV with this name already exists", g.Status.Get())
	assert.Equal(t, 1, g.PvDetails.Len())

	assert.True(t, g.RemovePvDetail("K:vac:p1"))
	assert.False(t, g.RemovePvDetail("K:vac:p1"))
}

func TestDataGenerationValidation(t *testing.T) {
	f := newFixture(t)
	g := NewDataGeneration(f.env)

	g.Generate()
	assert.Equal(t, "Please fill in all required fields", g.Status.Get())

	g.Provider.Name.Set("sim")
	g.PvDetails.Append(generator.PvDetail{Name: "a", DataType: generator.TypeFloat, SamplePeriodMs: 1000, InitialValue: "0", MaxStep: "1"})
	assert.True(t, g.Valid.Get())

	g.EndTime.Set(g.BeginTime.Get())
	assert.False(t, g.Valid.Get())
	g.Generate()
	assert.Equal(t, "Please fill in all required fields", g.Status.Get())
	assert.Zero(t, f.client.Calls("RegisterProvider"))
}

func TestDataGenerationGeneratesAndIngests(t *testing.T) {
	f := newFixture(t)
	g := NewDataGeneration(f.env)
	g.Seed = 7

	begin := time.Unix(1_700_000_000, 0)
	g.BeginTime.Set(begin)
	g.EndTime.Set(begin.Add(10 * time.Second))
	g.Provider.Name.Set("simulator")
	g.Provider.Tags.Add("test")
	g.Request.EventName.Set("run 1")
	g.Request.Attributes.Add("mode", "batch")
	g.PvDetails.Append(
		generator.PvDetail{Name: "a", DataType: generator.TypeInteger, SamplePeriodMs: 1000, InitialValue: "5", MaxStep: "1"},
		generator.PvDetail{Name: "b", DataType: generator.TypeBoolean, SamplePeriodMs: 2000, InitialValue: "true", MaxStep: "1"},
	)

	g.Generate()
	assert.False(t, g.GenerateEnabled.Get())
	f.settle(t, &g.Base)

	assert.Equal(t, "Data ingestion completed successfully", g.Status.Get())
	require.Len(t, f.client.Ingested, 1)
	req := f.client.Ingested[0]
	assert.Equal(t, "provider-1", req.ProviderID)
	require.Len(t, req.Frames, 2)
	assert.Len(t, req.Frames[0].Timestamps, 10)
	assert.Len(t, req.Frames[1].Timestamps, 5)
	require.NotNil(t, req.EventName)
	assert.Equal(t, "run 1", *req.EventName)
	assert.Equal(t, map[string]string{"mode": "batch"}, req.Attributes)

	require.Len(t, f.nav.generated, 1)
	assert.Contains(t, f.nav.generated[0], "Navigate to Data Explorer to query the generated data.")
	assert.Equal(t, []ViewName{ViewMain}, f.nav.views)
	assert.True(t, f.app.HasIngestedData().Get())
}

func TestDataGenerationRegistrationFailure(t *testing.T) {
	f := newFixture(t)
	f.client.Err = errors.New("unavailable")
	g := NewDataGeneration(f.env)
	g.Provider.Name.Set("sim")
	g.PvDetails.Append(generator.PvDetail{Name: "a", DataType: generator.TypeString, SamplePeriodMs: 1000, InitialValue: "x", MaxStep: "1"})

	g.Generate()
	f.settle(t, &g.Base)
	assert.Equal(t, "Provider registration failed: unavailable", g.Status.Get())
	assert.Empty(t, f.nav.generated)
}

func TestDataImportFlow(t *testing.T) {
	f := newFixture(t)
	frames := []models.DataFrame{
		{Name: "Sheet1", Timestamps: []models.Timestamp{{EpochSeconds: 1}}, Columns: []models.DataColumn{{Name: "a", Values: []models.DataValue{models.IntValue(1)}}}},
		{Name: "Sheet2", Timestamps: []models.Timestamp{{EpochSeconds: 1}}, Columns: []models.DataColumn{{Name: "b", Values: []models.DataValue{models.IntValue(2)}}}},
	}
	var imported []string
	f.env.Import = func(path string) models.DataImportResult {
		imported = append(imported, path)
		return models.DataImportResult{Status: models.Success("ok"), DataFrames: frames}
	}
	d := NewDataImport(f.env)

	d.Ingest()
	assert.Equal(t, "Provider name is required for ingestion", d.Status.Get())
	d.Provider.Name.Set("importer")
	d.Ingest()
	assert.Equal(t, "No imported data available for ingestion. Please import an Excel file first.", d.Status.Get())

	d.ImportFile("/data/run.xlsx")
	f.settle(t, &d.Base)
	assert.Equal(t, []string{"/data/run.xlsx"}, imported)
	assert.Equal(t, "Successfully imported 2 data frames from run.xlsx", d.Status.Get())
	assert.Equal(t, 2, f.app.ImportedFrames().Len())
	assert.Equal(t, []string{"Sheet1: a", "Sheet2: b"}, d.FrameSummaries())
	assert.True(t, d.IngestEnabled.Get())

	d.Ingest()
	assert.Equal(t, "Registering provider...", d.Status.Get())
	f.settle(t, &d.Base)
	assert.Equal(t, "Data ingestion completed successfully", d.Status.Get())
	require.Len(t, f.nav.generated, 1)
	assert.Equal(t, "Ingested 2 data frame(s) with 2 value(s). Navigate to Data Explorer to query the imported data.", f.nav.generated[0])
}

func TestDataImportFailureAndReset(t *testing.T) {
	f := newFixture(t)
	f.env.Import = func(path string) models.DataImportResult {
		return models.DataImportResult{Status: models.Failure("No data found in " + path)}
	}
	d := NewDataImport(f.env)
	f.app.ImportedFrames().Append(models.DataFrame{Name: "old"})

	d.ImportFile("empty.csv")
	assert.Zero(t, f.app.ImportedFrames().Len())
	f.settle(t, &d.Base)
	assert.Equal(t, "Import failed: No data found in empty.csv", d.Status.Get())
	assert.Equal(t, "", d.FilePath.Get())

	d.Provider.Name.Set("p")
	d.Request.Tags.Add("t")
	d.ClearAll()
	assert.Equal(t, "", d.Provider.Name.Get())
	assert.Empty(t, d.Request.Tags.Values())
	assert.Equal(t, "", d.Status.Get())
}

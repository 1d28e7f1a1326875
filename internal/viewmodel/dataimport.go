package viewmodel

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/reactive"
	"github.com/dp-desktop/client/internal/rows"
	"github.com/dp-desktop/client/internal/task"
)

// DataImport reads frames from a file and ingests them.
type DataImport struct {
	Base

	Provider *ProviderDetails
	Request  *RequestDetails
	FilePath *reactive.Cell[string]

	// Frames are the App's imported frames.
	Frames *reactive.List[models.DataFrame]

	Valid         *reactive.Derived[bool]
	IngestEnabled *reactive.Derived[bool]

	importSlot task.Slot
	ingestSlot task.Slot
}

// NewDataImport creates the data import view model.
func NewDataImport(env Env) *DataImport {
	presets := env.presets()
	d := &DataImport{
		Base:     newBase("data-import", env, ""),
		Provider: NewProviderDetails(presets.ProviderAttributes),
		Request:  NewRequestDetails(presets.RequestAttributes),
		FilePath: reactive.NewCell(""),
	}
	if env.App != nil {
		d.Frames = env.App.ImportedFrames()
	} else {
		d.Frames = reactive.NewList[models.DataFrame]()
	}
	d.Valid = reactive.Derive(func() bool {
		return !Blank(d.Provider.Name.Get()) && d.Frames.Len() > 0
	}, d.Provider.Name, d.Frames)
	d.IngestEnabled = reactive.Derive(func() bool {
		return d.Valid.Get() && !d.Busy.Get()
	}, d.Valid, d.Busy)
	return d
}

// FrameSummaries describes each imported frame for display.
func (d *DataImport) FrameSummaries() []string {
	frames := d.Frames.Items()
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = rows.FrameSummary(f)
	}
	return out
}

// ImportFile replaces the imported frames with those read from path.
func (d *DataImport) ImportFile(path string) {
	if !d.ready() {
		return
	}
	d.ResetImport()

	read := d.env.importer()
	d.Busy.Set(true)
	d.Status.Set("Importing " + filepath.Base(path) + "...")
	task.RunLatest(d.env.Runner, &d.importSlot, "Import",
		func(context.Context, *task.Task) (models.DataImportResult, error) {
			res := read(path)
			if res.Status.IsError {
				return res, res.Status.Err()
			}
			return res, nil
		},
		func(res models.DataImportResult) {
			d.Busy.Set(false)
			d.FilePath.Set(path)
			d.Frames.SetAll(res.DataFrames)
			d.Status.Set(fmt.Sprintf("Successfully imported %d data frames from %s", len(res.DataFrames), filepath.Base(path)))
		},
		func(err error) {
			d.Busy.Set(false)
			d.logger.Warnf("[DataImport] %s: %v", path, err)
			d.Status.Set("Import failed: " + err.Error())
		})
}

// Ingest registers the provider and ingests the imported frames.
func (d *DataImport) Ingest() {
	if !d.ready() {
		return
	}
	if Blank(d.Provider.Name.Get()) {
		d.Status.Set("Provider name is required for ingestion")
		return
	}
	if d.Frames.Len() == 0 {
		d.Status.Set("No imported data available for ingestion. Please import an Excel file first.")
		return
	}

	frames := d.Frames.Items()
	d.runIngestion(&d.ingestSlot, ingestion{
		op:       "Data ingestion",
		provider: d.Provider,
		request:  d.Request,
		frames: func(context.Context) ([]models.DataFrame, error) {
			return frames, nil
		},
		done: ". Navigate to Data Explorer to query the imported data.",
	})
}

// ResetImport forgets the file and its frames.
func (d *DataImport) ResetImport() {
	d.abort(&d.importSlot)
	d.FilePath.Set("")
	d.Frames.Clear()
	d.Status.Set("Import details reset")
}

// ClearAll resets every field of the view.
func (d *DataImport) ClearAll() {
	d.abort(&d.ingestSlot)
	d.Provider.Clear()
	d.Request.Clear()
	d.ResetImport()
	d.Status.Set("")
}

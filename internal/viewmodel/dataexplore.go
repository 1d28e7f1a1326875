package viewmodel

import (
	"context"
	"time"

	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/reactive"
	"github.com/dp-desktop/client/internal/rows"
	"github.com/dp-desktop/client/internal/session"
	"github.com/dp-desktop/client/internal/task"
)

// DataExplore is the query editor. Its PV list and time window are the
// App's, and it hosts the dataset and annotation builders.
type DataExplore struct {
	Base

	QueryPvs  *QueryPvs
	BeginTime *reactive.Cell[time.Time]
	EndTime   *reactive.Cell[time.Time]
	Result    *reactive.Cell[*models.DataFrame]

	Valid        *reactive.Derived[bool]
	QueryEnabled *reactive.Derived[bool]

	Datasets    *DatasetBuilder
	Annotations *AnnotationBuilder

	unbind []func()
	slot   task.Slot
}

// NewDataExplore creates the query editor. It needs the App.
func NewDataExplore(env Env) *DataExplore {
	d := &DataExplore{
		Base:        newBase("data-explore", env, "Ready to query"),
		BeginTime:   reactive.NewCellFunc(time.Time{}, time.Time.Equal),
		EndTime:     reactive.NewCellFunc(time.Time{}, time.Time.Equal),
		Result:      reactive.NewCell[*models.DataFrame](nil),
		Datasets:    NewDatasetBuilder(env),
		Annotations: NewAnnotationBuilder(env),
	}

	pvCount := reactive.Derive(func() int { return 0 })
	if env.App != nil {
		d.QueryPvs = NewQueryPvs(env.App)
		d.unbind = append(d.unbind,
			reactive.BindBidirectional(env.App.DataBeginTime(), d.BeginTime),
			reactive.BindBidirectional(env.App.DataEndTime(), d.EndTime))
		pvCount = reactive.Size(env.App.PvNameList())
	}
	d.Valid = reactive.Derive(func() bool {
		return pvCount.Get() > 0 && d.BeginTime.Get().Before(d.EndTime.Get())
	}, pvCount, d.BeginTime, d.EndTime)
	d.QueryEnabled = reactive.All(d.Valid, reactive.Not(d.Busy))
	return d
}

// Query fetches the selected PVs over the window.
func (d *DataExplore) Query() {
	if !d.ready() {
		return
	}
	if !d.Valid.Get() {
		d.Status.Set(d.validationMessage())
		return
	}
	q := models.DataQuery{
		PvNames:   d.env.App.PvNames(),
		BeginTime: models.TimestampOf(d.BeginTime.Get()),
		EndTime:   models.TimestampOf(d.EndTime.Get()),
	}
	d.Result.Set(nil)
	d.Status.Set("Querying data...")
	launch(&d.Base, &d.slot, "Query",
		func(ctx context.Context, app *session.App) (models.DataFrame, models.ResultStatus) {
			res := app.QueryData(ctx, q)
			return res.Table, res.Status
		},
		func(table models.DataFrame, st models.ResultStatus) {
			d.Result.Set(&table)
			d.Status.Set(st.Message)
			if d.env.Nav != nil {
				d.env.Nav.OnQuerySuccess(st.Message)
			}
		}, nil)
}

func (d *DataExplore) validationMessage() string {
	noPvs := d.env.App.PvNameList().Len() == 0
	badWindow := !d.BeginTime.Get().Before(d.EndTime.Get())
	switch {
	case noPvs && badWindow:
		return "Select at least one PV and a begin time before the end time"
	case noPvs:
		return "Select at least one PV"
	default:
		return "Begin time must be before end time"
	}
}

// AddQueryToDataset turns the current PV list and window into a data block
// of the dataset builder.
func (d *DataExplore) AddQueryToDataset() {
	if !d.ready() {
		return
	}
	if !d.Valid.Get() {
		d.Status.Set(d.validationMessage())
		return
	}
	block := models.DataBlock{
		PvNames:   d.env.App.PvNames(),
		BeginTime: models.TimestampOf(d.BeginTime.Get()),
		EndTime:   models.TimestampOf(d.EndTime.Get()),
	}
	if d.Datasets.AddDataBlock(block) {
		d.Status.Set("Added data block: " + rows.DataBlockSummary(block))
	} else {
		d.Status.Set("Data block already in dataset")
	}
}

// AddDatasetToAnnotation adds the dataset builder's saved dataset to the
// annotation builder's targets.
func (d *DataExplore) AddDatasetToAnnotation() {
	ds := d.Datasets.DataSet()
	if ds.ID == "" {
		d.Status.Set("Save the dataset before adding it to an annotation")
		return
	}
	if d.Annotations.AddDataSet(ds) {
		d.Status.Set("Added dataset to annotation: " + rows.DataSetSummary(ds))
	} else {
		d.Status.Set("Dataset already in annotation")
	}
}

// Close detaches the editor from the App.
func (d *DataExplore) Close() {
	for _, fn := range d.unbind {
		fn()
	}
	d.unbind = nil
}

package viewmodel

import (
	"context"
	"fmt"

	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/reactive"
	"github.com/dp-desktop/client/internal/rows"
	"github.com/dp-desktop/client/internal/session"
	"github.com/dp-desktop/client/internal/task"
)

const msgNoCriteria = "Please enter at least one criterion"

// DatasetExplore searches datasets.
type DatasetExplore struct {
	Base

	ID              *reactive.Cell[string]
	Owner           *reactive.Cell[string]
	NameDescription *reactive.Cell[string]
	PvName          *reactive.Cell[string]
	Results         *reactive.List[*rows.DatasetRow]

	ResultCount   *reactive.Derived[int]
	SearchEnabled *reactive.Derived[bool]

	slot task.Slot
}

// NewDatasetExplore creates the dataset explore view model.
func NewDatasetExplore(env Env) *DatasetExplore {
	d := &DatasetExplore{
		Base:            newBase("dataset-explore", env, "Ready to search for datasets"),
		ID:              reactive.NewCell(""),
		Owner:           reactive.NewCell(""),
		NameDescription: reactive.NewCell(""),
		PvName:          reactive.NewCell(""),
		Results:         reactive.NewList[*rows.DatasetRow](),
	}
	d.ResultCount = reactive.Size(d.Results)
	d.SearchEnabled = reactive.Derive(func() bool {
		return !d.Criteria().IsEmpty() && !d.Busy.Get()
	}, d.ID, d.Owner, d.NameDescription, d.PvName, d.Busy)
	return d
}

// Criteria maps the form to the query; blank fields are left unset.
func (d *DatasetExplore) Criteria() models.DataSetCriteria {
	return models.DataSetCriteria{
		ID:              Optional(d.ID.Get()),
		Owner:           Optional(d.Owner.Get()),
		NameDescription: Optional(d.NameDescription.Get()),
		PvName:          Optional(d.PvName.Get()),
	}
}

// Search runs the dataset query, superseding any search in flight.
func (d *DatasetExplore) Search() {
	if !d.ready() {
		return
	}
	c := d.Criteria()
	if c.IsEmpty() {
		d.Status.Set(msgNoCriteria)
		return
	}

	d.Results.Clear()
	d.Status.Set("Searching datasets...")
	launch(&d.Base, &d.slot, "Search",
		func(ctx context.Context, app *session.App) ([]models.DataSet, models.ResultStatus) {
			res := app.QueryDataSets(ctx, c)
			return res.DataSets, res.Status
		},
		func(sets []models.DataSet, _ models.ResultStatus) {
			d.Results.SetAll(rows.DatasetRows(sets))
			d.Status.Set(fmt.Sprintf("Found %d dataset(s)", len(sets)))
		}, nil)
}

// Cancel abandons the search in flight.
func (d *DatasetExplore) Cancel() {
	d.abort(&d.slot)
	d.Status.Set("Operation cancelled")
}

// Clear resets the criteria and results.
func (d *DatasetExplore) Clear() {
	d.abort(&d.slot)
	d.ID.Set("")
	d.Owner.Set("")
	d.NameDescription.Set("")
	d.PvName.Set("")
	d.Results.Clear()
	d.Status.Set("Search cleared")
}

// OpenDataset loads dataset id into the dataset builder.
func (d *DatasetExplore) OpenDataset(id string) {
	if nav, ok := d.navigator(); ok && !Blank(id) {
		nav.NavigateToDataExploreWithDataset(id)
	}
}

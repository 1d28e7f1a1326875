package viewmodel

import (
	"context"
	"fmt"
	"strings"

	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/reactive"
	"github.com/dp-desktop/client/internal/session"
	"github.com/dp-desktop/client/internal/task"
)

const (
	msgDatasetReady      = "Ready to build dataset"
	msgDatasetNeedsBoth  = "Dataset name and data blocks are required"
	msgDatasetNeedsName  = "Dataset name is required"
	msgDatasetNeedsBlock = "Data blocks are required"
)

// DatasetBuilder edits one dataset inside the data explore view.
type DatasetBuilder struct {
	Base

	ID          *reactive.Cell[string]
	Name        *reactive.Cell[string]
	Description *reactive.Cell[string]
	Blocks      *reactive.List[models.DataBlock]

	Valid        *reactive.Derived[bool]
	SaveEnabled  *reactive.Derived[bool]
	ResetEnabled *reactive.Derived[bool]

	slot task.Slot
}

// NewDatasetBuilder creates an empty builder.
func NewDatasetBuilder(env Env) *DatasetBuilder {
	b := &DatasetBuilder{
		Base:        newBase("dataset-builder", env, msgDatasetReady),
		ID:          reactive.NewCell(""),
		Name:        reactive.NewCell(""),
		Description: reactive.NewCell(""),
		Blocks:      reactive.NewList[models.DataBlock](),
	}
	b.Valid = reactive.Derive(func() bool {
		return !Blank(b.Name.Get()) && b.Blocks.Len() > 0
	}, b.Name, b.Blocks)
	b.SaveEnabled = reactive.All(b.Valid, reactive.Not(b.Busy))
	b.ResetEnabled = reactive.Derive(func() bool {
		return !Blank(b.ID.Get()) || !Blank(b.Name.Get()) || !Blank(b.Description.Get()) || b.Blocks.Len() > 0
	}, b.ID, b.Name, b.Description, b.Blocks)

	b.Name.Watch(b.updateValidation)
	b.Blocks.Watch(b.updateValidation)
	return b
}

func (b *DatasetBuilder) validationMessage() string {
	name, blocks := !Blank(b.Name.Get()), b.Blocks.Len() > 0
	switch {
	case !name && !blocks:
		return msgDatasetNeedsBoth
	case !name:
		return msgDatasetNeedsName
	case !blocks:
		return msgDatasetNeedsBlock
	default:
		return msgDatasetReady
	}
}

func (b *DatasetBuilder) updateValidation() {
	b.Status.Set(b.validationMessage())
}

// AddDataBlock appends block unless an equal block is present.
func (b *DatasetBuilder) AddDataBlock(block models.DataBlock) bool {
	if b.Blocks.ContainsFunc(block.Equal) {
		return false
	}
	b.Blocks.Append(block)
	return true
}

// RemoveDataBlock removes the block at index i.
func (b *DatasetBuilder) RemoveDataBlock(i int) {
	if i >= 0 && i < b.Blocks.Len() {
		b.Blocks.RemoveAt(i)
	}
}

// Reset clears the form and drops any pending load or save.
func (b *DatasetBuilder) Reset() {
	b.abort(&b.slot)
	b.ID.Set("")
	b.Name.Set("")
	b.Description.Set("")
	b.Blocks.Clear()
	b.Status.Set("Dataset reset")
}

// DataSet returns the dataset described by the form.
func (b *DatasetBuilder) DataSet() models.DataSet {
	return models.DataSet{
		ID:          strings.TrimSpace(b.ID.Get()),
		Name:        strings.TrimSpace(b.Name.Get()),
		Description: strings.TrimSpace(b.Description.Get()),
		DataBlocks:  b.Blocks.Items(),
	}
}

// Save creates or updates the dataset.
func (b *DatasetBuilder) Save() {
	if !b.Valid.Get() {
		b.updateValidation()
		return
	}
	if !b.ready() {
		return
	}
	ds := b.DataSet()
	b.Status.Set("Saving dataset...")
	launch(&b.Base, &b.slot, "Save",
		func(ctx context.Context, app *session.App) (string, models.ResultStatus) {
			res := app.SaveDataSet(ctx, ds)
			return res.ID, res.Status
		},
		func(id string, st models.ResultStatus) {
			b.ID.Set(id)
			b.Status.Set(st.Message)
		}, nil)
}

// Preload loads dataset id into the form unless it is already shown.
// It reports whether a fetch was started.
func (b *DatasetBuilder) Preload(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" || id == b.ID.Get() {
		return false
	}
	b.Load(id)
	return true
}

// Load fetches dataset id and fills the form with it.
func (b *DatasetBuilder) Load(id string) {
	if !b.ready() {
		return
	}
	b.ID.Set(id)
	b.Status.Set("Loading dataset " + id + "...")
	launch(&b.Base, &b.slot, "Load",
		func(ctx context.Context, app *session.App) (models.DataSet, models.ResultStatus) {
			res := app.QueryDataSets(ctx, models.DataSetCriteria{ID: &id})
			if res.Status.IsError {
				return models.DataSet{}, res.Status
			}
			for _, ds := range res.DataSets {
				if ds.ID == id {
					return ds, res.Status
				}
			}
			return models.DataSet{}, models.Failuref("Dataset %s not found", id)
		},
		func(ds models.DataSet, _ models.ResultStatus) {
			b.Name.Set(ds.Name)
			b.Description.Set(ds.Description)
			b.Blocks.SetAll(ds.DataBlocks)
			b.Status.Set(fmt.Sprintf("Loaded dataset %s", ds.ID))
		},
		func(error) { b.ID.Set("") })
}

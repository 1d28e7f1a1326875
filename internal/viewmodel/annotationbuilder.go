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
	msgAnnotationReady        = "Ready to build annotation"
	msgAnnotationNeedsBoth    = "Annotation name and target datasets are required"
	msgAnnotationNeedsName    = "Annotation name is required"
	msgAnnotationNeedsDataSet = "Target datasets are required"
)

// AnnotationBuilder edits one annotation inside the data explore view.
type AnnotationBuilder struct {
	Base

	ID                *reactive.Cell[string]
	Name              *reactive.Cell[string]
	Comment           *reactive.Cell[string]
	EventName         *reactive.Cell[string]
	DataSets          *reactive.List[models.DataSet]
	CalculationFrames *reactive.List[models.DataFrame]
	Tags              *TagsList
	Attributes        *AttributesList

	Valid        *reactive.Derived[bool]
	SaveEnabled  *reactive.Derived[bool]
	ResetEnabled *reactive.Derived[bool]

	slot task.Slot
}

// NewAnnotationBuilder creates an empty builder.
func NewAnnotationBuilder(env Env) *AnnotationBuilder {
	b := &AnnotationBuilder{
		Base:              newBase("annotation-builder", env, msgAnnotationReady),
		ID:                reactive.NewCell(""),
		Name:              reactive.NewCell(""),
		Comment:           reactive.NewCell(""),
		EventName:         reactive.NewCell(""),
		DataSets:          reactive.NewList[models.DataSet](),
		CalculationFrames: reactive.NewList[models.DataFrame](),
		Tags:              NewTagsList(),
		Attributes:        NewAttributesList(nil),
	}
	b.Valid = reactive.Derive(func() bool {
		return !Blank(b.Name.Get()) && b.DataSets.Len() > 0
	}, b.Name, b.DataSets)
	b.SaveEnabled = reactive.All(b.Valid, reactive.Not(b.Busy))
	b.ResetEnabled = reactive.Derive(func() bool {
		return !Blank(b.ID.Get()) || !Blank(b.Name.Get()) || !Blank(b.Comment.Get()) ||
			!Blank(b.EventName.Get()) || b.DataSets.Len() > 0 || b.CalculationFrames.Len() > 0 ||
			b.Tags.Items.Len() > 0 || b.Attributes.Items.Len() > 0
	}, b.ID, b.Name, b.Comment, b.EventName, b.DataSets, b.CalculationFrames, b.Tags.Items, b.Attributes.Items)

	b.Name.Watch(b.updateValidation)
	b.DataSets.Watch(b.updateValidation)
	return b
}

func (b *AnnotationBuilder) validationMessage() string {
	name, sets := !Blank(b.Name.Get()), b.DataSets.Len() > 0
	switch {
	case !name && !sets:
		return msgAnnotationNeedsBoth
	case !name:
		return msgAnnotationNeedsName
	case !sets:
		return msgAnnotationNeedsDataSet
	default:
		return msgAnnotationReady
	}
}

func (b *AnnotationBuilder) updateValidation() {
	b.Status.Set(b.validationMessage())
}

// AddDataSet adds ds as a target unless a dataset with the same id is
// already present. Unsaved datasets cannot be targets.
func (b *AnnotationBuilder) AddDataSet(ds models.DataSet) bool {
	if ds.ID == "" {
		b.Status.Set("Save the dataset before adding it to an annotation")
		return false
	}
	if b.DataSets.ContainsFunc(func(d models.DataSet) bool { return d.ID == ds.ID }) {
		return false
	}
	b.DataSets.Append(ds)
	return true
}

// RemoveDataSet removes the target dataset with the given id.
func (b *AnnotationBuilder) RemoveDataSet(id string) bool {
	return b.DataSets.RemoveFunc(func(d models.DataSet) bool { return d.ID == id }) > 0
}

// Reset clears the form and drops any pending load or save.
func (b *AnnotationBuilder) Reset() {
	b.abort(&b.slot)
	b.ID.Set("")
	b.Name.Set("")
	b.Comment.Set("")
	b.EventName.Set("")
	b.DataSets.Clear()
	b.CalculationFrames.Clear()
	b.Tags.Clear()
	b.Attributes.Clear()
	b.Status.Set("Annotation reset")
}

// Annotation returns the annotation described by the form.
func (b *AnnotationBuilder) Annotation() models.Annotation {
	sets := b.DataSets.Items()
	ids := make([]string, len(sets))
	for i, ds := range sets {
		ids[i] = ds.ID
	}
	an := models.Annotation{
		ID:                strings.TrimSpace(b.ID.Get()),
		Name:              strings.TrimSpace(b.Name.Get()),
		Comment:           strings.TrimSpace(b.Comment.Get()),
		DataSetIDs:        ids,
		Tags:              b.Tags.Values(),
		Attributes:        b.Attributes.Map(),
		CalculationFrames: b.CalculationFrames.Items(),
	}
	if event := Optional(b.EventName.Get()); event != nil {
		an.Event = &models.EventMetadata{Description: *event}
	}
	return an
}

// Save creates or updates the annotation.
func (b *AnnotationBuilder) Save() {
	if !b.Valid.Get() {
		b.updateValidation()
		return
	}
	if !b.ready() {
		return
	}
	an := b.Annotation()
	b.Status.Set("Saving annotation...")
	launch(&b.Base, &b.slot, "Save",
		func(ctx context.Context, app *session.App) (string, models.ResultStatus) {
			res := app.SaveAnnotation(ctx, an)
			return res.ID, res.Status
		},
		func(id string, st models.ResultStatus) {
			b.ID.Set(id)
			b.Status.Set(st.Message)
		}, nil)
}

// Preload loads annotation id into the form unless it is already shown.
// It reports whether a fetch was started.
func (b *AnnotationBuilder) Preload(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" || id == b.ID.Get() {
		return false
	}
	b.Load(id)
	return true
}

type loadedAnnotation struct {
	annotation models.Annotation
	dataSets   []models.DataSet
}

// Load fetches annotation id together with its target datasets.
func (b *AnnotationBuilder) Load(id string) {
	if !b.ready() {
		return
	}
	b.ID.Set(id)
	b.Status.Set("Loading annotation " + id + "...")
	launch(&b.Base, &b.slot, "Load",
		func(ctx context.Context, app *session.App) (loadedAnnotation, models.ResultStatus) {
			res := app.QueryAnnotations(ctx, models.AnnotationCriteria{ID: &id})
			if res.Status.IsError {
				return loadedAnnotation{}, res.Status
			}
			var found *models.Annotation
			for i := range res.Annotations {
				if res.Annotations[i].ID == id {
					found = &res.Annotations[i]
					break
				}
			}
			if found == nil {
				return loadedAnnotation{}, models.Failuref("Annotation %s not found", id)
			}

			out := loadedAnnotation{annotation: *found}
			for _, dsID := range found.DataSetIDs {
				sets := app.QueryDataSets(ctx, models.DataSetCriteria{ID: &dsID})
				if sets.Status.IsError {
					return loadedAnnotation{}, sets.Status
				}
				if len(sets.DataSets) == 0 {
					out.dataSets = append(out.dataSets, models.DataSet{ID: dsID})
					continue
				}
				out.dataSets = append(out.dataSets, sets.DataSets[0])
			}
			return out, res.Status
		},
		func(l loadedAnnotation, _ models.ResultStatus) {
			an := l.annotation
			b.Name.Set(an.Name)
			b.Comment.Set(an.Comment)
			event := ""
			if an.Event != nil {
				event = an.Event.Description
			}
			b.EventName.Set(event)
			b.DataSets.SetAll(l.dataSets)
			b.CalculationFrames.SetAll(an.CalculationFrames)
			b.Tags.Items.SetAll(an.Tags)
			attrs := make([]string, 0, len(an.Attributes))
			for _, k := range sortedKeys(an.Attributes) {
				attrs = append(attrs, FormatAttribute(k, an.Attributes[k]))
			}
			b.Attributes.Items.SetAll(attrs)
			b.Status.Set(fmt.Sprintf("Loaded annotation %s", an.ID))
		},
		func(error) { b.ID.Set("") })
}

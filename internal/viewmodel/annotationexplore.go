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

// Dialog is the single modal the explore views may raise.
type Dialog struct {
	Title   string
	Text    string
	Warning bool
}

// AnnotationExplore searches annotations.
type AnnotationExplore struct {
	Base

	ID                *reactive.Cell[string]
	Owner             *reactive.Cell[string]
	RelatedDataSet    *reactive.Cell[string]
	RelatedAnnotation *reactive.Cell[string]
	NameCommentEvent  *reactive.Cell[string]
	Tag               *reactive.Cell[string]
	AttributeKey      *reactive.Cell[string]
	AttributeValue    *reactive.Cell[string]
	Results           *reactive.List[*rows.AnnotationRow]

	// Dialog is non-nil while a modal is shown.
	Dialog *reactive.Cell[*Dialog]

	ResultCountMessage *reactive.Derived[string]
	SearchEnabled      *reactive.Derived[bool]

	slot task.Slot
}

// NewAnnotationExplore creates the annotation explore view model.
func NewAnnotationExplore(env Env) *AnnotationExplore {
	a := &AnnotationExplore{
		Base:              newBase("annotation-explore", env, "Ready to search for annotations"),
		ID:                reactive.NewCell(""),
		Owner:             reactive.NewCell(""),
		RelatedDataSet:    reactive.NewCell(""),
		RelatedAnnotation: reactive.NewCell(""),
		NameCommentEvent:  reactive.NewCell(""),
		Tag:               reactive.NewCell(""),
		AttributeKey:      reactive.NewCell(""),
		AttributeValue:    reactive.NewCell(""),
		Results:           reactive.NewList[*rows.AnnotationRow](),
		Dialog:            reactive.NewCell[*Dialog](nil),
	}
	a.ResultCountMessage = reactive.Derive(func() string {
		switch n := a.Results.Len(); n {
		case 1:
			return "1 result"
		default:
			return fmt.Sprintf("%d results", n)
		}
	}, a.Results)
	a.SearchEnabled = reactive.Derive(func() bool {
		return !a.Criteria().IsEmpty() && !a.Busy.Get()
	}, a.ID, a.Owner, a.RelatedDataSet, a.RelatedAnnotation, a.NameCommentEvent,
		a.Tag, a.AttributeKey, a.AttributeValue, a.Busy)
	return a
}

// Criteria maps the form to the query; blank fields become nil.
func (a *AnnotationExplore) Criteria() models.AnnotationCriteria {
	return models.AnnotationCriteria{
		ID:                Optional(a.ID.Get()),
		Owner:             Optional(a.Owner.Get()),
		RelatedDataSet:    Optional(a.RelatedDataSet.Get()),
		RelatedAnnotation: Optional(a.RelatedAnnotation.Get()),
		NameCommentEvent:  Optional(a.NameCommentEvent.Get()),
		Tag:               Optional(a.Tag.Get()),
		AttributeKey:      Optional(a.AttributeKey.Get()),
		AttributeValue:    Optional(a.AttributeValue.Get()),
	}
}

// Search runs the annotation query, superseding any search in flight.
func (a *AnnotationExplore) Search() {
	c := a.Criteria()
	if c.IsEmpty() {
		a.Status.Set(msgNoCriteria)
		return
	}
	if !a.ready() {
		return
	}

	a.Results.Clear()
	a.Status.Set("Searching for annotations...")
	launch(&a.Base, &a.slot, "Search",
		func(ctx context.Context, app *session.App) ([]models.Annotation, models.ResultStatus) {
			res := app.QueryAnnotations(ctx, c)
			return res.Annotations, res.Status
		},
		func(annotations []models.Annotation, _ models.ResultStatus) {
			a.Results.SetAll(rows.AnnotationRows(annotations))
			a.Status.Set("Search completed successfully")
		}, nil)
}

// Clear resets the criteria and results.
func (a *AnnotationExplore) Clear() {
	a.abort(&a.slot)
	for _, c := range []*reactive.Cell[string]{
		a.ID, a.Owner, a.RelatedDataSet, a.RelatedAnnotation,
		a.NameCommentEvent, a.Tag, a.AttributeKey, a.AttributeValue,
	} {
		c.Set("")
	}
	a.Results.Clear()
	a.Status.Set("Search cleared")
}

// OpenAnnotation loads annotation id into the annotation builder.
func (a *AnnotationExplore) OpenAnnotation(id string) {
	if nav, ok := a.navigator(); ok && !Blank(id) {
		nav.NavigateToDataExploreWithAnnotation(id)
	}
}

// OpenDataset loads dataset id into the dataset builder.
func (a *AnnotationExplore) OpenDataset(id string) {
	if nav, ok := a.navigator(); ok && !Blank(id) {
		nav.NavigateToDataExploreWithDataset(id)
	}
}

// ShowCalculationFrame opens the details dialog for a calculation frame of
// row, or a warning when the row has no such frame.
func (a *AnnotationExplore) ShowCalculationFrame(row *rows.AnnotationRow, name string) {
	frame, ok := row.CalculationFrame(name)
	if !ok {
		a.Dialog.Set(&Dialog{
			Title:   "Calculation frame not found",
			Text:    fmt.Sprintf("Annotation %s has no calculation frame named %q.", row.Annotation.ID, name),
			Warning: true,
		})
		return
	}
	a.Dialog.Set(&Dialog{
		Title: "Calculation frame: " + frame.Name,
		Text:  rows.FrameDetails(frame),
	})
}

// CloseDialog dismisses the modal.
func (a *AnnotationExplore) CloseDialog() {
	a.Dialog.Set(nil)
}

// Package viewmodel holds the per-screen view models. Every field is a
// reactive cell owned by the UI goroutine; commands hand blocking work to a
// task.Runner and apply the outcome when it is posted back.
package viewmodel

import (
	"context"

	"github.com/labstack/gommon/log"

	"github.com/dp-desktop/client/internal/config"
	"github.com/dp-desktop/client/internal/importer"
	"github.com/dp-desktop/client/internal/logging"
	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/reactive"
	"github.com/dp-desktop/client/internal/session"
	"github.com/dp-desktop/client/internal/task"
)

// ViewName identifies a top-level view.
type ViewName string

const (
	ViewMain              ViewName = "main"
	ViewDataExplore       ViewName = "data-explore"
	ViewAnnotationExplore ViewName = "annotation-explore"
	ViewDatasetExplore    ViewName = "dataset-explore"
	ViewPvExplore         ViewName = "pv-explore"
	ViewProviderExplore   ViewName = "provider-explore"
	ViewDataEventExplore  ViewName = "data-event-explore"
	ViewDataGeneration    ViewName = "data-generation"
	ViewDataImport        ViewName = "data-import"
)

// ViewNames lists every view in tab order.
var ViewNames = []ViewName{
	ViewMain, ViewDataGeneration, ViewDataImport, ViewDataExplore, ViewPvExplore,
	ViewProviderExplore, ViewDatasetExplore, ViewAnnotationExplore, ViewDataEventExplore,
}

// Navigator switches views and carries cross-view hand-offs.
type Navigator interface {
	SwitchTo(name ViewName) error
	NavigateToDataExploreWithAnnotation(id string)
	NavigateToDataExploreWithDataset(id string)
	NavigateToProviderExploreWithSearch(providerID string)
	OnDataGenerationSuccess(message string)
	OnQuerySuccess(message string)
}

// ImportFunc reads a data file into frames.
type ImportFunc func(path string) models.DataImportResult

// Env is what every view model is constructed with. Presets and Import fall
// back to the built-in presets and the default importer registry.
type Env struct {
	App     *session.App
	Nav     Navigator
	Runner  *task.Runner
	Presets *config.Presets
	Import  ImportFunc
}

func (e Env) presets() *config.Presets {
	if e.Presets == nil {
		return config.DefaultPresets()
	}
	return e.Presets
}

func (e Env) importer() ImportFunc {
	if e.Import == nil {
		return importer.Import
	}
	return e.Import
}

const msgNotInitialized = "Application not initialized"

// Base carries the status line and busy flag shared by all view models.
type Base struct {
	env    Env
	logger *log.Logger

	Status *reactive.Cell[string]
	Busy   *reactive.Cell[bool]
}

func newBase(component string, env Env, status string) Base {
	return Base{
		env:    env,
		logger: logging.For(component),
		Status: reactive.NewCell(status),
		Busy:   reactive.NewCell(false),
	}
}

// SetStatus replaces the status line.
func (b *Base) SetStatus(msg string) {
	b.Status.Set(msg)
}

// ready reports a missing App or runner on the status line.
func (b *Base) ready() bool {
	if b.env.App == nil || b.env.Runner == nil {
		b.logger.Warnf("[ViewModel] command invoked without application")
		b.Status.Set(msgNotInitialized)
		return false
	}
	return true
}

func (b *Base) navigator() (Navigator, bool) {
	if b.env.Nav == nil {
		b.Status.Set("Navigation not available")
		return nil, false
	}
	return b.env.Nav, true
}

type outcome[T any] struct {
	value  T
	status models.ResultStatus
}

// launch runs body through slot with Busy raised. An error status from body
// routes to the failure path, which reports "<op> failed: <message>" and
// then calls onFail when given.
func launch[T any](b *Base, slot *task.Slot, op string,
	body func(ctx context.Context, app *session.App) (T, models.ResultStatus),
	onOk func(T, models.ResultStatus), onFail func(error)) *task.Task {

	app := b.env.App
	b.Busy.Set(true)
	return task.RunLatest(b.env.Runner, slot, op,
		func(ctx context.Context, _ *task.Task) (outcome[T], error) {
			v, st := body(ctx, app)
			if st.IsError {
				return outcome[T]{}, st.Err()
			}
			return outcome[T]{value: v, status: st}, nil
		},
		func(o outcome[T]) {
			b.Busy.Set(false)
			onOk(o.value, o.status)
		},
		func(err error) {
			b.Busy.Set(false)
			b.logger.Warnf("[ViewModel] %s failed: %v", op, err)
			b.Status.Set(op + " failed: " + err.Error())
			if onFail != nil {
				onFail(err)
			}
		})
}

// abort drops the pending task of slot and lowers Busy.
func (b *Base) abort(slot *task.Slot) {
	slot.Cancel()
	b.Busy.Set(false)
}

// Snapshot returns the status line and busy flag.
func (b *Base) Snapshot() (status string, busy bool) {
	return b.Status.Get(), b.Busy.Get()
}

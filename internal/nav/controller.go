// Package nav owns the top-level views. View models are created the first
// time their view is shown and live for the rest of the session.
package nav

import (
	"errors"
	"fmt"

	"github.com/dp-desktop/client/internal/logging"
	"github.com/dp-desktop/client/internal/reactive"
	"github.com/dp-desktop/client/internal/viewmodel"
)

var logger = logging.For("nav")

// ErrUnknownView is returned by SwitchTo for names outside the registry.
var ErrUnknownView = errors.New("unknown view")

// Controller switches between views and routes cross-view hand-offs.
type Controller struct {
	env     viewmodel.Env
	Current *reactive.Cell[viewmodel.ViewName]

	factories map[viewmodel.ViewName]func(viewmodel.Env) any
	views     map[viewmodel.ViewName]any
}

// New creates a controller showing the main view. env.Nav is replaced by
// the controller.
func New(env viewmodel.Env) *Controller {
	c := &Controller{
		Current: reactive.NewCell(viewmodel.ViewMain),
		views:   make(map[viewmodel.ViewName]any),
	}
	env.Nav = c
	c.env = env
	c.factories = map[viewmodel.ViewName]func(viewmodel.Env) any{
		viewmodel.ViewMain:              func(e viewmodel.Env) any { return viewmodel.NewHome(e) },
		viewmodel.ViewDataExplore:       func(e viewmodel.Env) any { return viewmodel.NewDataExplore(e) },
		viewmodel.ViewAnnotationExplore: func(e viewmodel.Env) any { return viewmodel.NewAnnotationExplore(e) },
		viewmodel.ViewDatasetExplore:    func(e viewmodel.Env) any { return viewmodel.NewDatasetExplore(e) },
		viewmodel.ViewPvExplore:         func(e viewmodel.Env) any { return viewmodel.NewPvExplore(e) },
		viewmodel.ViewProviderExplore:   func(e viewmodel.Env) any { return viewmodel.NewProviderExplore(e) },
		viewmodel.ViewDataEventExplore:  func(e viewmodel.Env) any { return viewmodel.NewDataEventExplore(e) },
		viewmodel.ViewDataGeneration:    func(e viewmodel.Env) any { return viewmodel.NewDataGeneration(e) },
		viewmodel.ViewDataImport:        func(e viewmodel.Env) any { return viewmodel.NewDataImport(e) },
	}
	return c
}

var _ viewmodel.Navigator = (*Controller)(nil)

// View returns the view model of name, creating it on first use.
func (c *Controller) View(name viewmodel.ViewName) (any, error) {
	if vm, ok := c.views[name]; ok {
		return vm, nil
	}
	factory, ok := c.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
	vm := factory(c.env)
	c.views[name] = vm
	logger.Debugf("[Nav] created view model for %s", name)
	return vm, nil
}

// Created reports whether the view model of name exists yet.
func (c *Controller) Created(name viewmodel.ViewName) bool {
	_, ok := c.views[name]
	return ok
}

// SwitchTo shows the view called name.
func (c *Controller) SwitchTo(name viewmodel.ViewName) error {
	if _, err := c.View(name); err != nil {
		logger.Warnf("[Nav] %v", err)
		return err
	}
	if c.Current.Set(name) {
		logger.Infof("[Nav] switched to %s", name)
	}
	return nil
}

func mustView[T any](c *Controller, name viewmodel.ViewName) T {
	vm, err := c.View(name)
	if err != nil {
		panic(err)
	}
	return vm.(T)
}

func (c *Controller) Home() *viewmodel.Home {
	return mustView[*viewmodel.Home](c, viewmodel.ViewMain)
}

func (c *Controller) DataExplore() *viewmodel.DataExplore {
	return mustView[*viewmodel.DataExplore](c, viewmodel.ViewDataExplore)
}

func (c *Controller) AnnotationExplore() *viewmodel.AnnotationExplore {
	return mustView[*viewmodel.AnnotationExplore](c, viewmodel.ViewAnnotationExplore)
}

func (c *Controller) DatasetExplore() *viewmodel.DatasetExplore {
	return mustView[*viewmodel.DatasetExplore](c, viewmodel.ViewDatasetExplore)
}

func (c *Controller) PvExplore() *viewmodel.PvExplore {
	return mustView[*viewmodel.PvExplore](c, viewmodel.ViewPvExplore)
}

func (c *Controller) ProviderExplore() *viewmodel.ProviderExplore {
	return mustView[*viewmodel.ProviderExplore](c, viewmodel.ViewProviderExplore)
}

func (c *Controller) DataEventExplore() *viewmodel.DataEventExplore {
	return mustView[*viewmodel.DataEventExplore](c, viewmodel.ViewDataEventExplore)
}

func (c *Controller) DataGeneration() *viewmodel.DataGeneration {
	return mustView[*viewmodel.DataGeneration](c, viewmodel.ViewDataGeneration)
}

func (c *Controller) DataImport() *viewmodel.DataImport {
	return mustView[*viewmodel.DataImport](c, viewmodel.ViewDataImport)
}

// NavigateToDataExploreWithDataset opens dataset id in the dataset builder.
// The dataset is fetched only if the builder is not already showing it.
func (c *Controller) NavigateToDataExploreWithDataset(id string) {
	if err := c.SwitchTo(viewmodel.ViewDataExplore); err != nil {
		return
	}
	if c.DataExplore().Datasets.Preload(id) {
		logger.Infof("[Nav] loading dataset %s", id)
	}
}

// NavigateToDataExploreWithAnnotation opens annotation id in the annotation
// builder.
func (c *Controller) NavigateToDataExploreWithAnnotation(id string) {
	if err := c.SwitchTo(viewmodel.ViewDataExplore); err != nil {
		return
	}
	if c.DataExplore().Annotations.Preload(id) {
		logger.Infof("[Nav] loading annotation %s", id)
	}
}

// NavigateToProviderExploreWithSearch shows the provider with providerID.
func (c *Controller) NavigateToProviderExploreWithSearch(providerID string) {
	if err := c.SwitchTo(viewmodel.ViewProviderExplore); err != nil {
		return
	}
	c.ProviderExplore().SearchFor(providerID)
}

// OnDataGenerationSuccess reports an ingestion on the home view and shows it.
func (c *Controller) OnDataGenerationSuccess(message string) {
	c.Home().OnDataGenerationSuccess(message)
	_ = c.SwitchTo(viewmodel.ViewMain)
}

// OnQuerySuccess reports a query on the home view.
func (c *Controller) OnQuerySuccess(message string) {
	c.Home().OnQuerySuccess(message)
}

// Close detaches the view models that observe the session.
func (c *Controller) Close() {
	if c.Created(viewmodel.ViewDataExplore) {
		c.DataExplore().Close()
	}
	if c.Created(viewmodel.ViewDataEventExplore) {
		c.DataEventExplore().Close()
	}
}

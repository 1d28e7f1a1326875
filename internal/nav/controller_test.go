package nav

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/session"
	"github.com/dp-desktop/client/internal/task"
	"github.com/dp-desktop/client/internal/testutil"
	"github.com/dp-desktop/client/internal/uithread"
	"github.com/dp-desktop/client/internal/viewmodel"
)

func newController(t *testing.T) (*Controller, *testutil.FakeClient, *uithread.Manual) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	client := testutil.NewFakeClient()
	ui := uithread.NewManual()
	app := session.New(client, ui)
	c := New(viewmodel.Env{App: app, Runner: task.NewRunner(ctx, ui)})
	t.Cleanup(func() {
		c.Close()
		cancel()
		app.Close(context.Background())
	})
	return c, client, ui
}

func TestSwitchToCreatesViewModelsOnce(t *testing.T) {
	c, _, _ := newController(t)
	assert.Equal(t, viewmodel.ViewMain, c.Current.Get())

	for _, name := range viewmodel.ViewNames {
		assert.False(t, c.Created(name), name)
	}

	require.NoError(t, c.SwitchTo(viewmodel.ViewPvExplore))
	assert.Equal(t, viewmodel.ViewPvExplore, c.Current.Get())
	first := c.PvExplore()
	first.SearchText.Set("kept")

	require.NoError(t, c.SwitchTo(viewmodel.ViewMain))
	require.NoError(t, c.SwitchTo(viewmodel.ViewPvExplore))
	assert.Same(t, first, c.PvExplore())
	assert.Equal(t, "kept", c.PvExplore().SearchText.Get())
	assert.False(t, c.Created(viewmodel.ViewDataImport))
}

func TestSwitchToUnknownView(t *testing.T) {
	c, _, _ := newController(t)

	err := c.SwitchTo("settings")
	assert.True(t, errors.Is(err, ErrUnknownView))
	assert.Equal(t, viewmodel.ViewMain, c.Current.Get())
}

func TestEveryViewIsRegistered(t *testing.T) {
	c, _, _ := newController(t)
	for _, name := range viewmodel.ViewNames {
		assert.NoError(t, c.SwitchTo(name), name)
	}
}

func TestDatasetHyperlinkFetchesOnce(t *testing.T) {
	c, client, ui := newController(t)
	client.DataSets["DS-42"] = models.DataSet{ID: "DS-42", Name: "forty two"}

	require.NoError(t, c.SwitchTo(viewmodel.ViewDatasetExplore))
	c.DatasetExplore().OpenDataset("DS-42")
	c.DatasetExplore().OpenDataset("DS-42")

	assert.Equal(t, viewmodel.ViewDataExplore, c.Current.Get())
	builder := c.DataExplore().Datasets
	require.True(t, ui.Await(func() bool { return builder.Name.Get() == "forty two" }, 2*time.Second))

	c.NavigateToDataExploreWithDataset("DS-42")
	ui.RunPending()
	assert.Equal(t, 1, client.Calls("QueryDataSets"))
	assert.Equal(t, "DS-42", builder.ID.Get())
}

func TestAnnotationHyperlink(t *testing.T) {
	c, client, ui := newController(t)
	client.Annotations["an-3"] = models.Annotation{ID: "an-3", Name: "three"}

	c.AnnotationExplore().OpenAnnotation("an-3")
	assert.Equal(t, viewmodel.ViewDataExplore, c.Current.Get())
	builder := c.DataExplore().Annotations
	require.True(t, ui.Await(func() bool { return builder.Name.Get() == "three" }, 2*time.Second))

	c.NavigateToDataExploreWithAnnotation("an-3")
	assert.Equal(t, 1, client.Calls("QueryAnnotations"))
}

func TestProviderHyperlink(t *testing.T) {
	c, client, ui := newController(t)
	client.Providers["sim"] = models.Provider{ID: "provider-9", Name: "sim"}

	c.PvExplore().OpenProvider("provider-9")
	assert.Equal(t, viewmodel.ViewProviderExplore, c.Current.Get())
	p := c.ProviderExplore()
	require.True(t, ui.Await(func() bool { return p.Results.Len() == 1 }, 2*time.Second))

	c.NavigateToProviderExploreWithSearch("provider-9")
	assert.Equal(t, 1, client.Calls("QueryProviders"))
}

func TestOnDataGenerationSuccess(t *testing.T) {
	c, _, _ := newController(t)
	require.NoError(t, c.SwitchTo(viewmodel.ViewDataImport))

	c.OnDataGenerationSuccess("Ingested 3 data frame(s)")
	assert.Equal(t, viewmodel.ViewMain, c.Current.Get())
	assert.Equal(t, "Ingested 3 data frame(s)", c.Home().Details.Get())
}

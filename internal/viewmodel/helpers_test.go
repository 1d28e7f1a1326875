package viewmodel

import (
	"context"
	"testing"
	"time"

	"github.com/dp-desktop/client/internal/session"
	"github.com/dp-desktop/client/internal/task"
	"github.com/dp-desktop/client/internal/testutil"
	"github.com/dp-desktop/client/internal/uithread"
)

const waitFor = 2 * time.Second

type fakeNav struct {
	views       []ViewName
	datasets    []string
	annotations []string
	providers   []string
	generated   []string
	queries     []string
	err         error
}

func (n *fakeNav) SwitchTo(name ViewName) error {
	if n.err != nil {
		return n.err
	}
	n.views = append(n.views, name)
	return nil
}

func (n *fakeNav) NavigateToDataExploreWithAnnotation(id string) {
	n.annotations = append(n.annotations, id)
}

func (n *fakeNav) NavigateToDataExploreWithDataset(id string) {
	n.datasets = append(n.datasets, id)
}

func (n *fakeNav) NavigateToProviderExploreWithSearch(providerID string) {
	n.providers = append(n.providers, providerID)
}

func (n *fakeNav) OnDataGenerationSuccess(message string) {
	n.generated = append(n.generated, message)
	n.views = append(n.views, ViewMain)
}

func (n *fakeNav) OnQuerySuccess(message string) {
	n.queries = append(n.queries, message)
}

type fixture struct {
	env    Env
	app    *session.App
	client *testutil.FakeClient
	ui     *uithread.Manual
	nav    *fakeNav
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	client := testutil.NewFakeClient()
	ui := uithread.NewManual()
	app := session.New(client, ui)
	nav := &fakeNav{}
	t.Cleanup(func() {
		cancel()
		app.Close(context.Background())
	})
	return &fixture{
		env:    Env{App: app, Nav: nav, Runner: task.NewRunner(ctx, ui)},
		app:    app,
		client: client,
		ui:     ui,
		nav:    nav,
	}
}

// settle drains the UI queue until b is no longer busy.
func (f *fixture) settle(t *testing.T, b *Base) {
	t.Helper()
	if !f.ui.Await(func() bool { return !b.Busy.Get() }, waitFor) {
		t.Fatalf("view model still busy after %v", waitFor)
	}
}

// drain runs posted callbacks for d, for results that must not arrive.
func (f *fixture) drain(d time.Duration) {
	f.ui.Await(func() bool { return false }, d)
}

func strp(s string) *string { return &s }

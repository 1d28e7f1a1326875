package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/rpc"
	"github.com/dp-desktop/client/internal/testutil"
	"github.com/dp-desktop/client/internal/uithread"
)

func newApp(t *testing.T) (*App, *testutil.FakeClient, *uithread.Manual) {
	t.Helper()
	client := testutil.NewFakeClient()
	ui := uithread.NewManual()
	app := New(client, ui, WithEndpoints(rpc.SingleHost("http://localhost:50051")))
	t.Cleanup(func() { app.Close(context.Background()) })
	return app, client, ui
}

func TestPvNameListStaysUniqueAndOrdered(t *testing.T) {
	app, _, _ := newApp(t)

	assert.True(t, app.AddPvName("b"))
	assert.True(t, app.AddPvName(" a "))
	assert.False(t, app.AddPvName("b"))
	assert.False(t, app.AddPvName("   "))
	assert.True(t, app.AddPvName("B"))
	assert.Equal(t, []string{"b", "a", "B"}, app.PvNames())

	assert.True(t, app.RemovePvName("b"))
	assert.False(t, app.RemovePvName("missing"))
	assert.Equal(t, []string{"a", "B"}, app.PvNames())

	app.SetPvNames([]string{"x", "y", "x", "", "z", "y"})
	assert.Equal(t, []string{"x", "y", "z"}, app.PvNames())

	app.AddPvName("a")
	assert.Equal(t, []string{"x", "y", "z", "a"}, app.PvNames())
}

func TestTimeWindowHasNoOrderingConstraint(t *testing.T) {
	app, _, _ := newApp(t)
	end := time.Unix(100, 0)
	begin := time.Unix(200, 0)
	app.SetDataEndTime(end)
	app.SetDataBeginTime(begin)
	assert.True(t, app.DataBeginTime().Get().Equal(begin))
	assert.True(t, app.DataEndTime().Get().Equal(end))
}

func TestIngestRequiresRegisteredProvider(t *testing.T) {
	app, client, ui := newApp(t)
	ctx := context.Background()
	frames := []models.DataFrame{{
		Name:       "f1",
		Timestamps: []models.Timestamp{{EpochSeconds: 1}},
		Columns:    []models.DataColumn{{Name: "pv1", Values: []models.DataValue{models.DoubleValue(1)}}},
	}}

	res := app.IngestImportedData(ctx, nil, nil, nil, frames)
	assert.True(t, res.Status.IsError)
	assert.Equal(t, 0, client.Calls("IngestData"))

	status := app.RegisterProvider(ctx, "  gen  ", "desc", []string{"t"}, map[string]string{"k": "v"})
	require.False(t, status.IsError, status.Message)
	first, _, _ := app.RegisteredProvider()

	status = app.RegisterProvider(ctx, "gen", "", nil, nil)
	require.False(t, status.IsError)
	second, name, ok := app.RegisteredProvider()
	assert.True(t, ok)
	assert.Equal(t, "gen", name)
	assert.Equal(t, first, second)

	event := "run-1"
	res = app.IngestImportedData(ctx, []string{"tag"}, map[string]string{"a": "b"}, &event, frames)
	require.False(t, res.Status.IsError, res.Status.Message)
	assert.Equal(t, 1, res.Stats.FrameCount)
	assert.Equal(t, 1, res.Stats.ValueCount)
	require.Len(t, client.Ingested, 1)
	assert.Equal(t, first, client.Ingested[0].ProviderID)
	assert.Equal(t, "run-1", *client.Ingested[0].EventName)

	assert.False(t, app.HasIngestedData().Get())
	ui.RunPending()
	assert.True(t, app.HasIngestedData().Get())
}

func TestIngestProviderDataUsesNamedProvider(t *testing.T) {
	app, client, _ := newApp(t)
	ctx := context.Background()
	frames := []models.DataFrame{{
		Name:       "f1",
		Timestamps: []models.Timestamp{{EpochSeconds: 1}},
		Columns:    []models.DataColumn{{Name: "pv1", Values: []models.DataValue{models.IntValue(1)}}},
	}}

	res := app.IngestProviderData(ctx, "gen", nil, nil, nil, frames)
	assert.True(t, res.Status.IsError)
	assert.Equal(t, 0, client.Calls("IngestData"))

	require.False(t, app.RegisterProvider(ctx, "gen", "", nil, nil).IsError)
	genID, _, _ := app.RegisteredProvider()
	require.False(t, app.RegisterProvider(ctx, "import", "", nil, nil).IsError)
	importID, _, _ := app.RegisteredProvider()
	require.NotEqual(t, genID, importID)

	res = app.IngestProviderData(ctx, " gen ", nil, nil, nil, frames)
	require.False(t, res.Status.IsError, res.Status.Message)
	res = app.IngestImportedData(ctx, nil, nil, nil, frames)
	require.False(t, res.Status.IsError, res.Status.Message)

	require.Len(t, client.Ingested, 2)
	assert.Equal(t, genID, client.Ingested[0].ProviderID)
	assert.Equal(t, importID, client.Ingested[1].ProviderID)
}

func TestRegisterProviderRejectsBlankName(t *testing.T) {
	app, client, _ := newApp(t)
	status := app.RegisterProvider(context.Background(), " ", "", nil, nil)
	assert.True(t, status.IsError)
	assert.Equal(t, 0, client.Calls("RegisterProvider"))
}

func TestQueryValidationIsLocal(t *testing.T) {
	app, client, _ := newApp(t)
	ctx := context.Background()

	res := app.QueryPvMetadata(ctx, models.PvMetadataQuery{Names: []string{" ", ""}})
	assert.True(t, res.Status.IsError)
	assert.Equal(t, 0, client.Calls("QueryPvMetadata"))

	assert.True(t, app.QueryDataSets(ctx, models.DataSetCriteria{}).Status.IsError)
	assert.True(t, app.QueryAnnotations(ctx, models.AnnotationCriteria{}).Status.IsError)
	assert.True(t, app.QueryProviders(ctx, models.ProviderCriteria{}).Status.IsError)
	assert.Equal(t, 0, client.Calls("QueryDataSets"))
	assert.Equal(t, 0, client.Calls("QueryAnnotations"))
}

func TestQueryPvMetadataTrimsNames(t *testing.T) {
	app, client, _ := newApp(t)
	client.PvInfos = []models.PvInfo{{PvName: "a"}, {PvName: "b"}}

	res := app.QueryPvMetadata(context.Background(), models.PvMetadataQuery{Names: []string{" a", "", "b "}})
	require.False(t, res.Status.IsError)
	assert.Len(t, res.PvInfos, 2)
	assert.Equal(t, []string{"a", "b"}, client.PvQueries[0].Names)
}

func TestTransportErrorBecomesStatus(t *testing.T) {
	app, client, _ := newApp(t)
	client.Err = errors.New("connection refused")
	id := "DS-1"

	res := app.QueryDataSets(context.Background(), models.DataSetCriteria{ID: &id})
	assert.True(t, res.Status.IsError)
	assert.Equal(t, "connection refused", res.Status.Message)
	assert.Empty(t, res.DataSets)
}

func TestPanickingClientBecomesStatus(t *testing.T) {
	app, client, _ := newApp(t)
	client.QueryAnnotationsFunc = func(context.Context, models.AnnotationCriteria) ([]models.Annotation, error) {
		panic("nil stub")
	}
	owner := "me"
	res := app.QueryAnnotations(context.Background(), models.AnnotationCriteria{Owner: &owner})
	assert.True(t, res.Status.IsError)
	assert.Contains(t, res.Status.Message, "nil stub")
}

func TestQueryDataMarksQueried(t *testing.T) {
	app, client, ui := newApp(t)
	client.Table = models.DataFrame{Timestamps: []models.Timestamp{{EpochSeconds: 1}, {EpochSeconds: 2}}}

	res := app.QueryData(context.Background(), models.DataQuery{
		PvNames: []string{"pv"}, BeginTime: models.Timestamp{EpochSeconds: 1}, EndTime: models.Timestamp{EpochSeconds: 2},
	})
	require.False(t, res.Status.IsError, res.Status.Message)
	assert.Equal(t, "Query returned 2 row(s)", res.Status.Message)
	ui.RunPending()
	assert.True(t, app.HasQueriedData().Get())

	res = app.QueryData(context.Background(), models.DataQuery{
		PvNames: []string{"pv"}, BeginTime: models.Timestamp{EpochSeconds: 2}, EndTime: models.Timestamp{EpochSeconds: 2},
	})
	assert.True(t, res.Status.IsError)
}

func TestResetApplicationState(t *testing.T) {
	app, _, _ := newApp(t)
	app.AddPvName("a")
	app.HasQueriedData().Set(true)
	app.ImportedFrames().Append(models.DataFrame{Name: "f"})

	app.ResetApplicationState()
	assert.Empty(t, app.PvNames())
	assert.False(t, app.HasQueriedData().Get())
	assert.Equal(t, 0, app.ImportedFrames().Len())
}

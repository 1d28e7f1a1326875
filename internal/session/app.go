package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dp-desktop/client/internal/logging"
	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/reactive"
	"github.com/dp-desktop/client/internal/rpc"
	"github.com/dp-desktop/client/internal/uithread"
)

var logger = logging.For("session")

// DefaultShutdownTimeout bounds how long Close waits for each stream.
const DefaultShutdownTimeout = 5 * time.Second

// App is the process-wide client session injected into every view model.
//
// The observable state (PV list, time window, imported frames, flags and the
// subscription list) belongs to the UI goroutine. The RPC methods block and
// are meant to be called from task bodies; they report through ResultStatus
// and never panic or return errors.
type App struct {
	client    rpc.Client
	ui        uithread.Dispatcher
	endpoints rpc.Endpoints

	pvNames         *reactive.List[string]
	dataBeginTime   *reactive.Cell[time.Time]
	dataEndTime     *reactive.Cell[time.Time]
	importedFrames  *reactive.List[models.DataFrame]
	hasIngestedData *reactive.Cell[bool]
	hasQueriedData  *reactive.Cell[bool]
	subscriptions   *reactive.List[models.SubscriptionDescriptor]
	eventListeners  []*eventListener

	mu        sync.Mutex
	provider  *registeredProvider
	providers map[string]string
	streams   map[models.SubscriptionDescriptor]*subscription
	buffers   map[models.SubscriptionDescriptor][]models.DataEvent
	closed    bool
}

type registeredProvider struct {
	id   string
	name string
}

type subscription struct {
	stream     rpc.EventStream
	opened     time.Time
	cancelling bool
	// ended is set once the receive loop has returned.
	ended bool
}

type eventListener struct {
	fn     func(models.SubscriptionDescriptor, []models.DataEvent)
	active bool
}

// Option configures an App.
type Option func(*App)

// WithEndpoints records the service endpoints the client talks to.
func WithEndpoints(e rpc.Endpoints) Option {
	return func(a *App) { a.endpoints = e }
}

// WithTimeWindow sets the initial query window.
func WithTimeWindow(begin, end time.Time) Option {
	return func(a *App) {
		a.dataBeginTime.Set(begin)
		a.dataEndTime.Set(end)
	}
}

// New creates the session. The default query window is the last hour.
func New(client rpc.Client, ui uithread.Dispatcher, opts ...Option) *App {
	end := time.Now().Truncate(time.Second)
	a := &App{
		client:          client,
		ui:              ui,
		pvNames:         reactive.NewList[string](),
		dataBeginTime:   reactive.NewCellFunc(end.Add(-time.Hour), time.Time.Equal),
		dataEndTime:     reactive.NewCellFunc(end, time.Time.Equal),
		importedFrames:  reactive.NewList[models.DataFrame](),
		hasIngestedData: reactive.NewCell(false),
		hasQueriedData:  reactive.NewCell(false),
		subscriptions:   reactive.NewList[models.SubscriptionDescriptor](),
		providers:       make(map[string]string),
		streams:         make(map[models.SubscriptionDescriptor]*subscription),
		buffers:         make(map[models.SubscriptionDescriptor][]models.DataEvent),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Endpoints returns the configured service endpoints.
func (a *App) Endpoints() rpc.Endpoints { return a.endpoints }

// Dispatcher returns the UI dispatcher the session posts to.
func (a *App) Dispatcher() uithread.Dispatcher { return a.ui }

// PvNameList is the observable PV selection. Mutate it only through
// SetPvNames, AddPvName and RemovePvName.
func (a *App) PvNameList() *reactive.List[string] { return a.pvNames }

// PvNames returns a copy of the PV selection.
func (a *App) PvNames() []string { return a.pvNames.Items() }

// SetPvNames replaces the selection, keeping the first occurrence of each
// name and dropping blanks.
func (a *App) SetPvNames(names []string) {
	seen := make(map[string]struct{}, len(names))
	unique := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		unique = append(unique, n)
	}
	a.pvNames.SetAll(unique)
}

// AddPvName appends name unless it is blank or already selected.
func (a *App) AddPvName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || reactive.Contains(a.pvNames, name) {
		return false
	}
	a.pvNames.Append(name)
	return true
}

// RemovePvName removes name from the selection.
func (a *App) RemovePvName(name string) bool {
	i := reactive.IndexOf(a.pvNames, strings.TrimSpace(name))
	if i < 0 {
		return false
	}
	a.pvNames.RemoveAt(i)
	return true
}

// DataBeginTime is the start of the query window.
func (a *App) DataBeginTime() *reactive.Cell[time.Time] { return a.dataBeginTime }

// DataEndTime is the end of the query window.
func (a *App) DataEndTime() *reactive.Cell[time.Time] { return a.dataEndTime }

// SetDataBeginTime sets the start of the query window. Ordering against the
// end time is left to the view models.
func (a *App) SetDataBeginTime(t time.Time) { a.dataBeginTime.Set(t) }

// SetDataEndTime sets the end of the query window.
func (a *App) SetDataEndTime(t time.Time) { a.dataEndTime.Set(t) }

// ImportedFrames holds frames imported from files and not yet ingested.
func (a *App) ImportedFrames() *reactive.List[models.DataFrame] { return a.importedFrames }

// HasIngestedData turns true after the first successful ingestion.
func (a *App) HasIngestedData() *reactive.Cell[bool] { return a.hasIngestedData }

// HasQueriedData turns true after the first successful data query.
func (a *App) HasQueriedData() *reactive.Cell[bool] { return a.hasQueriedData }

// Subscriptions lists the descriptors with an open stream.
func (a *App) Subscriptions() *reactive.List[models.SubscriptionDescriptor] { return a.subscriptions }

// OnDataEvents registers fn to be told, on the UI goroutine, about events
// appended to any subscription buffer.
func (a *App) OnDataEvents(fn func(models.SubscriptionDescriptor, []models.DataEvent)) (cancel func()) {
	l := &eventListener{fn: fn, active: true}
	a.eventListeners = append(a.eventListeners, l)
	return func() {
		l.active = false
		for i, other := range a.eventListeners {
			if other == l {
				a.eventListeners = append(a.eventListeners[:i:i], a.eventListeners[i+1:]...)
				break
			}
		}
	}
}

func (a *App) notifyEvents(d models.SubscriptionDescriptor, events []models.DataEvent) {
	snapshot := append([]*eventListener(nil), a.eventListeners...)
	for _, l := range snapshot {
		if l.active {
			l.fn(d, events)
		}
	}
}

// ResetApplicationState clears the user selections and the session flags.
// Open subscriptions are left alone.
func (a *App) ResetApplicationState() {
	a.pvNames.Clear()
	a.importedFrames.Clear()
	a.hasIngestedData.Set(false)
	a.hasQueriedData.Set(false)
}

// guard turns a panic in an RPC method into an error status.
func guard(status *models.ResultStatus, op string) {
	if r := recover(); r != nil {
		logger.Errorf("[App] %s PANIC recovered: %v", op, r)
		*status = models.Failuref("%s failed unexpectedly: %v", op, r)
	}
}

// RegisterProvider registers a provider by name. Registering the same name
// again yields the same provider id.
func (a *App) RegisterProvider(ctx context.Context, name, description string, tags []string, attributes map[string]string) (status models.ResultStatus) {
	defer guard(&status, "registerProvider")

	name = strings.TrimSpace(name)
	if name == "" {
		return models.Failure("Provider name is required")
	}

	res, err := a.client.RegisterProvider(ctx, rpc.RegisterProviderRequest{
		Name:        name,
		Description: strings.TrimSpace(description),
		Tags:        tags,
		Attributes:  attributes,
	})
	if err != nil {
		logger.Warnf("[App] registerProvider %s failed: %v", name, err)
		return models.FailureFrom(err)
	}

	a.mu.Lock()
	if known, ok := a.providers[name]; ok && known != res.ProviderID {
		logger.Warnf("[App] provider %s changed id %s -> %s", name, known, res.ProviderID)
	}
	a.providers[name] = res.ProviderID
	a.provider = &registeredProvider{id: res.ProviderID, name: name}
	a.mu.Unlock()

	logger.Infof("[App] provider %s registered as %s (new=%v)", name, res.ProviderID, res.IsNewProvider)
	return models.Success(fmt.Sprintf("Provider %s registered", name))
}

// RegisteredProvider returns the provider last registered in this session.
func (a *App) RegisteredProvider() (id, name string, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.provider == nil {
		return "", "", false
	}
	return a.provider.id, a.provider.name, true
}

// IngestResult wraps the outcome of an ingestion.
type IngestResult struct {
	Status models.ResultStatus
	Stats  models.IngestStats
}

// IngestImportedData ingests frames for the provider registered last.
func (a *App) IngestImportedData(ctx context.Context, tags []string, attributes map[string]string, eventName *string, frames []models.DataFrame) (res IngestResult) {
	defer guard(&res.Status, "ingestImportedData")

	a.mu.Lock()
	provider := a.provider
	a.mu.Unlock()

	if provider == nil {
		res.Status = models.Failure("A provider must be registered before ingesting data")
		return res
	}
	return a.ingest(ctx, *provider, tags, attributes, eventName, frames)
}

// IngestProviderData ingests frames for the named provider, which must have
// been registered in this session. Commands that register and then ingest
// use it so a concurrent registration cannot redirect their frames.
func (a *App) IngestProviderData(ctx context.Context, providerName string, tags []string, attributes map[string]string, eventName *string, frames []models.DataFrame) (res IngestResult) {
	defer guard(&res.Status, "ingestProviderData")

	name := strings.TrimSpace(providerName)
	a.mu.Lock()
	id, ok := a.providers[name]
	a.mu.Unlock()

	if !ok {
		res.Status = models.Failure("Provider " + name + " must be registered before ingesting data")
		return res
	}
	return a.ingest(ctx, registeredProvider{id: id, name: name}, tags, attributes, eventName, frames)
}

func (a *App) ingest(ctx context.Context, provider registeredProvider, tags []string, attributes map[string]string, eventName *string, frames []models.DataFrame) (res IngestResult) {
	if len(frames) == 0 {
		res.Status = models.Failure("No data frames to ingest")
		return res
	}

	req := models.IngestRequest{
		ProviderID: provider.id,
		RequestID:  uuid.New().String(),
		Tags:       tags,
		Attributes: attributes,
		EventName:  eventName,
		Frames:     frames,
	}
	logger.Infof("[Ingest %s] provider=%s frames=%d", logging.ShortID(req.RequestID), provider.name, len(frames))

	stats, err := a.client.IngestData(ctx, req)
	if err != nil {
		logger.Warnf("[Ingest %s] failed: %v", logging.ShortID(req.RequestID), err)
		res.Status = models.FailureFrom(err)
		return res
	}

	a.ui.Post(func() { a.hasIngestedData.Set(true) })
	res.Stats = stats
	res.Status = models.Success(fmt.Sprintf("Ingested %d data frame(s) with %d value(s)", stats.FrameCount, stats.ValueCount))
	return res
}

// PvMetadataResult wraps a PV metadata query.
type PvMetadataResult struct {
	Status  models.ResultStatus
	PvInfos []models.PvInfo
}

// QueryPvMetadata looks up PVs by exactly one of a name list or a pattern.
// Blank names are dropped before validation.
func (a *App) QueryPvMetadata(ctx context.Context, q models.PvMetadataQuery) (res PvMetadataResult) {
	defer guard(&res.Status, "queryPvMetadata")

	q.Names = compact(q.Names)
	q.Pattern = strings.TrimSpace(q.Pattern)
	if err := q.Validate(); err != nil {
		res.Status = models.FailureFrom(err)
		return res
	}

	infos, err := a.client.QueryPvMetadata(ctx, q)
	if err != nil {
		res.Status = models.FailureFrom(err)
		return res
	}
	res.PvInfos = infos
	res.Status = models.Success(fmt.Sprintf("Found %d PV(s)", len(infos)))
	return res
}

// ProvidersResult wraps a provider query.
type ProvidersResult struct {
	Status    models.ResultStatus
	Providers []models.Provider
}

// QueryProviders searches providers; at least one criterion is required.
func (a *App) QueryProviders(ctx context.Context, c models.ProviderCriteria) (res ProvidersResult) {
	defer guard(&res.Status, "queryProviders")

	if c.IsEmpty() {
		res.Status = models.Failure(ErrNoCriteria.Error())
		return res
	}
	providers, err := a.client.QueryProviders(ctx, c)
	if err != nil {
		res.Status = models.FailureFrom(err)
		return res
	}
	res.Providers = providers
	res.Status = models.Success(fmt.Sprintf("Found %d provider(s)", len(providers)))
	return res
}

// ErrNoCriteria rejects searches with every criterion empty.
var ErrNoCriteria = errors.New("At least one search criterion is required")

// DataSetsResult wraps a dataset query.
type DataSetsResult struct {
	Status   models.ResultStatus
	DataSets []models.DataSet
}

// QueryDataSets searches datasets; at least one criterion is required.
func (a *App) QueryDataSets(ctx context.Context, c models.DataSetCriteria) (res DataSetsResult) {
	defer guard(&res.Status, "queryDataSets")

	if c.IsEmpty() {
		res.Status = models.Failure(ErrNoCriteria.Error())
		return res
	}
	sets, err := a.client.QueryDataSets(ctx, c)
	if err != nil {
		res.Status = models.FailureFrom(err)
		return res
	}
	res.DataSets = sets
	res.Status = models.Success(fmt.Sprintf("Found %d dataset(s)", len(sets)))
	return res
}

// AnnotationsResult wraps an annotation query.
type AnnotationsResult struct {
	Status      models.ResultStatus
	Annotations []models.Annotation
}

// QueryAnnotations searches annotations; at least one criterion is required.
func (a *App) QueryAnnotations(ctx context.Context, c models.AnnotationCriteria) (res AnnotationsResult) {
	defer guard(&res.Status, "queryAnnotations")

	if c.IsEmpty() {
		res.Status = models.Failure(ErrNoCriteria.Error())
		return res
	}
	annotations, err := a.client.QueryAnnotations(ctx, c)
	if err != nil {
		res.Status = models.FailureFrom(err)
		return res
	}
	res.Annotations = annotations
	res.Status = models.Success(fmt.Sprintf("Found %d annotation(s)", len(annotations)))
	return res
}

// SaveResult carries the id assigned by a save.
type SaveResult struct {
	Status models.ResultStatus
	ID     string
}

// SaveDataSet creates or updates a dataset.
func (a *App) SaveDataSet(ctx context.Context, ds models.DataSet) (res SaveResult) {
	defer guard(&res.Status, "saveDataSet")

	if strings.TrimSpace(ds.Name) == "" || len(ds.DataBlocks) == 0 {
		res.Status = models.Failure("Dataset name and data blocks are required")
		return res
	}
	id, err := a.client.SaveDataSet(ctx, ds)
	if err != nil {
		res.Status = models.FailureFrom(err)
		return res
	}
	res.ID = id
	res.Status = models.Success(fmt.Sprintf("Dataset saved: %s", id))
	return res
}

// SaveAnnotation creates or updates an annotation.
func (a *App) SaveAnnotation(ctx context.Context, an models.Annotation) (res SaveResult) {
	defer guard(&res.Status, "saveAnnotation")

	if strings.TrimSpace(an.Name) == "" || len(an.DataSetIDs) == 0 {
		res.Status = models.Failure("Annotation name and target datasets are required")
		return res
	}
	id, err := a.client.SaveAnnotation(ctx, an)
	if err != nil {
		res.Status = models.FailureFrom(err)
		return res
	}
	res.ID = id
	res.Status = models.Success(fmt.Sprintf("Annotation saved: %s", id))
	return res
}

// TableResult wraps a data query.
type TableResult struct {
	Status models.ResultStatus
	Table  models.DataFrame
}

// QueryData fetches the values of PVs over a window.
func (a *App) QueryData(ctx context.Context, q models.DataQuery) (res TableResult) {
	defer guard(&res.Status, "queryData")

	q.PvNames = compact(q.PvNames)
	switch {
	case len(q.PvNames) == 0:
		res.Status = models.Failure("At least one PV name is required")
		return res
	case !q.BeginTime.Before(q.EndTime):
		res.Status = models.Failure("Begin time must be before end time")
		return res
	}

	table, err := a.client.QueryTable(ctx, q)
	if err != nil {
		res.Status = models.FailureFrom(err)
		return res
	}
	a.ui.Post(func() { a.hasQueriedData.Set(true) })
	res.Table = table
	res.Status = models.Success(fmt.Sprintf("Query returned %d row(s)", len(table.Timestamps)))
	return res
}

func compact(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

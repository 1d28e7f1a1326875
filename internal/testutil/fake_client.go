// fake_client.go - In-memory rpc.Client for view-model and session tests
package testutil

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/rpc"
)

// FakeClient implements rpc.Client against in-memory data. Every call is
// recorded; the *Func fields override individual methods.
type FakeClient struct {
	mu sync.Mutex

	Providers   map[string]models.Provider
	DataSets    map[string]models.DataSet
	Annotations map[string]models.Annotation
	PvInfos     []models.PvInfo
	Table       models.DataFrame
	Streams     map[models.SubscriptionDescriptor]*FakeStream

	// Err fails every unary call when set.
	Err error
	// SubscribeErr fails SubscribeDataEvent when set.
	SubscribeErr error
	// CancelErr is copied into every stream opened afterwards.
	CancelErr error
	// SubscribeGate, when set, holds SubscribeDataEvent until it is closed.
	SubscribeGate chan struct{}
	// EndStreams makes new streams start out ended by the server.
	EndStreams bool

	QueryPvMetadataFunc  func(ctx context.Context, q models.PvMetadataQuery) ([]models.PvInfo, error)
	QueryDataSetsFunc    func(ctx context.Context, c models.DataSetCriteria) ([]models.DataSet, error)
	QueryAnnotationsFunc func(ctx context.Context, c models.AnnotationCriteria) ([]models.Annotation, error)
	QueryProvidersFunc   func(ctx context.Context, c models.ProviderCriteria) ([]models.Provider, error)

	calls             map[string]int
	PvQueries         []models.PvMetadataQuery
	DataSetQueries    []models.DataSetCriteria
	AnnotationQueries []models.AnnotationCriteria
	ProviderQueries   []models.ProviderCriteria
	TableQueries      []models.DataQuery
	Ingested          []models.IngestRequest
	nextID            int
}

// NewFakeClient creates an empty fake.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		Providers:   make(map[string]models.Provider),
		DataSets:    make(map[string]models.DataSet),
		Annotations: make(map[string]models.Annotation),
		Streams:     make(map[models.SubscriptionDescriptor]*FakeStream),
		calls:       make(map[string]int),
	}
}

var _ rpc.Client = (*FakeClient)(nil)

// Calls returns how many times method was invoked.
func (f *FakeClient) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *FakeClient) record(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.Err
}

func (f *FakeClient) newID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *FakeClient) RegisterProvider(ctx context.Context, req rpc.RegisterProviderRequest) (rpc.RegisterProviderResult, error) {
	if err := f.record("RegisterProvider"); err != nil {
		return rpc.RegisterProviderResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if p, ok := f.Providers[req.Name]; ok {
		return rpc.RegisterProviderResult{ProviderID: p.ID, ProviderName: p.Name}, nil
	}
	p := models.Provider{ID: f.newID("provider"), Name: req.Name, Description: req.Description, Tags: req.Tags, Attributes: req.Attributes}
	f.Providers[req.Name] = p
	return rpc.RegisterProviderResult{ProviderID: p.ID, ProviderName: p.Name, IsNewProvider: true}, nil
}

func (f *FakeClient) IngestData(ctx context.Context, req models.IngestRequest) (models.IngestStats, error) {
	if err := f.record("IngestData"); err != nil {
		return models.IngestStats{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Ingested = append(f.Ingested, req)
	stats := models.IngestStats{RequestID: req.RequestID, FrameCount: len(req.Frames)}
	pvs := make(map[string]struct{})
	for _, frame := range req.Frames {
		stats.ValueCount += frame.ValueCount()
		for _, c := range frame.Columns {
			pvs[c.Name] = struct{}{}
		}
	}
	stats.PvCount = len(pvs)
	return stats, nil
}

func (f *FakeClient) QueryPvMetadata(ctx context.Context, q models.PvMetadataQuery) ([]models.PvInfo, error) {
	if err := f.record("QueryPvMetadata"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.PvQueries = append(f.PvQueries, q)
	override := f.QueryPvMetadataFunc
	f.mu.Unlock()
	if override != nil {
		return override(ctx, q)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var re *regexp.Regexp
	if q.Pattern != "" {
		var err error
		if re, err = regexp.Compile(q.Pattern); err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
	}
	var out []models.PvInfo
	for _, info := range f.PvInfos {
		if (re != nil && re.MatchString(info.PvName)) || slices.Contains(q.Names, info.PvName) {
			out = append(out, info)
		}
	}
	return out, nil
}

func (f *FakeClient) QueryProviders(ctx context.Context, c models.ProviderCriteria) ([]models.Provider, error) {
	if err := f.record("QueryProviders"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.ProviderQueries = append(f.ProviderQueries, c)
	override := f.QueryProvidersFunc
	f.mu.Unlock()
	if override != nil {
		return override(ctx, c)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Provider
	for _, p := range f.Providers {
		if c.ID != nil && p.ID != *c.ID {
			continue
		}
		if c.Text != nil && !strings.Contains(p.Name+" "+p.Description, *c.Text) {
			continue
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b models.Provider) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (f *FakeClient) QueryTable(ctx context.Context, q models.DataQuery) (models.DataFrame, error) {
	if err := f.record("QueryTable"); err != nil {
		return models.DataFrame{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TableQueries = append(f.TableQueries, q)
	return f.Table, nil
}

func (f *FakeClient) QueryDataSets(ctx context.Context, c models.DataSetCriteria) ([]models.DataSet, error) {
	if err := f.record("QueryDataSets"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.DataSetQueries = append(f.DataSetQueries, c)
	override := f.QueryDataSetsFunc
	f.mu.Unlock()
	if override != nil {
		return override(ctx, c)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DataSet
	for _, ds := range f.DataSets {
		if c.ID != nil && ds.ID != *c.ID {
			continue
		}
		if c.Owner != nil && ds.OwnerID != *c.Owner {
			continue
		}
		if c.NameDescription != nil && !strings.Contains(ds.Name+" "+ds.Description, *c.NameDescription) {
			continue
		}
		out = append(out, ds)
	}
	slices.SortFunc(out, func(a, b models.DataSet) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (f *FakeClient) SaveDataSet(ctx context.Context, ds models.DataSet) (string, error) {
	if err := f.record("SaveDataSet"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if ds.ID == "" {
		ds.ID = f.newID("ds")
	}
	f.DataSets[ds.ID] = ds
	return ds.ID, nil
}

func (f *FakeClient) QueryAnnotations(ctx context.Context, c models.AnnotationCriteria) ([]models.Annotation, error) {
	if err := f.record("QueryAnnotations"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.AnnotationQueries = append(f.AnnotationQueries, c)
	override := f.QueryAnnotationsFunc
	f.mu.Unlock()
	if override != nil {
		return override(ctx, c)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Annotation
	for _, an := range f.Annotations {
		if c.ID != nil && an.ID != *c.ID {
			continue
		}
		if c.Owner != nil && an.OwnerID != *c.Owner {
			continue
		}
		if c.RelatedDataSet != nil && !slices.Contains(an.DataSetIDs, *c.RelatedDataSet) {
			continue
		}
		out = append(out, an)
	}
	slices.SortFunc(out, func(a, b models.Annotation) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (f *FakeClient) SaveAnnotation(ctx context.Context, an models.Annotation) (string, error) {
	if err := f.record("SaveAnnotation"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if an.ID == "" {
		an.ID = f.newID("an")
	}
	f.Annotations[an.ID] = an
	return an.ID, nil
}

func (f *FakeClient) SubscribeDataEvent(ctx context.Context, d models.SubscriptionDescriptor) (rpc.EventStream, error) {
	f.mu.Lock()
	f.calls["SubscribeDataEvent"]++
	gate := f.SubscribeGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}
	s := NewFakeStream(f.newID("sub"))
	s.CancelErr = f.CancelErr
	if f.EndStreams {
		s.End()
	}
	f.Streams[d] = s
	return s, nil
}

// Stream returns the fake stream opened for d.
func (f *FakeClient) Stream(d models.SubscriptionDescriptor) *FakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Streams[d]
}

// FakeStream is a controllable rpc.EventStream.
type FakeStream struct {
	id        string
	events    chan models.DataEvent
	done      chan struct{}
	once      sync.Once
	CancelErr error
	// CloseOnCancelErr ends the stream even when Cancel fails, as a
	// transport does when the cancel write breaks the connection.
	CloseOnCancelErr bool
}

// NewFakeStream creates an open stream.
func NewFakeStream(id string) *FakeStream {
	return &FakeStream{
		id:     id,
		events: make(chan models.DataEvent, 64),
		done:   make(chan struct{}),
	}
}

func (s *FakeStream) ID() string { return s.id }

// Emit delivers an event to the receiver.
func (s *FakeStream) Emit(ev models.DataEvent) {
	s.events <- ev
}

// End closes the stream from the server side.
func (s *FakeStream) End() {
	s.once.Do(func() { close(s.done) })
}

// Ended reports whether the stream is closed.
func (s *FakeStream) Ended() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *FakeStream) Recv() (models.DataEvent, error) {
	select {
	case ev := <-s.events:
		return ev, nil
	case <-s.done:
		return models.DataEvent{}, io.EOF
	}
}

func (s *FakeStream) Cancel(ctx context.Context) error {
	if s.CancelErr != nil {
		if s.CloseOnCancelErr {
			s.End()
		}
		return s.CancelErr
	}
	s.End()
	return nil
}

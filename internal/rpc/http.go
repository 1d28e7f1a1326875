package rpc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dp-desktop/client/internal/logging"
	"github.com/dp-desktop/client/internal/models"
)

var logger = logging.For("rpc")

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 256 << 20

// Endpoints are the base URLs of the data-platform services.
type Endpoints struct {
	Ingestion       string
	Query           string
	Annotation      string
	IngestionStream string
}

// SingleHost returns endpoints that all point at one base URL.
func SingleHost(base string) Endpoints {
	base = strings.TrimRight(base, "/")
	return Endpoints{Ingestion: base, Query: base, Annotation: base, IngestionStream: base}
}

// HTTPClient implements Client with msgpack bodies over HTTP and event
// streams over websockets.
type HTTPClient struct {
	endpoints Endpoints
	http      *http.Client
	dialer    *websocket.Dialer
	timeout   time.Duration
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout bounds every unary call.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.timeout = d }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

// NewHTTPClient creates a client for the given endpoints.
func NewHTTPClient(endpoints Endpoints, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		endpoints: endpoints,
		http:      &http.Client{},
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   64 * 1024,
			WriteBufferSize:  64 * 1024,
		},
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) call(ctx context.Context, base, path string, req, resp any) error {
	body, err := Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	url := strings.TrimRight(base, "/") + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	requestID := uuid.New().String()
	httpReq.Header.Set("Content-Type", ContentTypeMsgpack)
	httpReq.Header.Set("Accept", ContentTypeMsgpack)
	httpReq.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	res, err := c.http.Do(httpReq)
	if err != nil {
		logger.Warnf("[RPC %s] %s transport error: %v", logging.ShortID(requestID), path, err)
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	logger.Debugf("[RPC %s] %s -> %d (%d bytes, %v)", logging.ShortID(requestID), path, res.StatusCode, len(data), time.Since(start))

	if res.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(res.StatusCode, data)
	}
	if len(data) == 0 {
		return ErrEmptyResponse
	}
	if err := Unmarshal(data, resp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// RegisterProvider registers (or looks up) a provider by name.
func (c *HTTPClient) RegisterProvider(ctx context.Context, req RegisterProviderRequest) (RegisterProviderResult, error) {
	var resp RegisterProviderResponse
	if err := c.call(ctx, c.endpoints.Ingestion, PathRegisterProvider, req, &resp); err != nil {
		return RegisterProviderResult{}, err
	}
	switch {
	case resp.Exceptional != nil:
		return RegisterProviderResult{}, resp.Exceptional.Err()
	case resp.Result == nil:
		return RegisterProviderResult{}, ErrEmptyResponse
	}
	return *resp.Result, nil
}

// IngestData sends data frames for a registered provider.
func (c *HTTPClient) IngestData(ctx context.Context, req models.IngestRequest) (models.IngestStats, error) {
	var resp IngestDataResponse
	if err := c.call(ctx, c.endpoints.Ingestion, PathIngestData, req, &resp); err != nil {
		return models.IngestStats{}, err
	}
	switch {
	case resp.Exceptional != nil:
		return models.IngestStats{}, resp.Exceptional.Err()
	case resp.Ack == nil:
		return models.IngestStats{}, ErrEmptyResponse
	}
	return *resp.Ack, nil
}

// QueryPvMetadata looks up PVs by name list or pattern.
func (c *HTTPClient) QueryPvMetadata(ctx context.Context, q models.PvMetadataQuery) ([]models.PvInfo, error) {
	var resp PvMetadataResponse
	if err := c.call(ctx, c.endpoints.Query, PathQueryPvMetadata, q, &resp); err != nil {
		return nil, err
	}
	switch {
	case resp.Exceptional != nil:
		return nil, resp.Exceptional.Err()
	case resp.Metadata == nil:
		return nil, ErrEmptyResponse
	}
	return resp.Metadata.PvInfos, nil
}

// QueryProviders searches registered providers.
func (c *HTTPClient) QueryProviders(ctx context.Context, criteria models.ProviderCriteria) ([]models.Provider, error) {
	var resp ProvidersResponse
	if err := c.call(ctx, c.endpoints.Query, PathQueryProviders, criteria, &resp); err != nil {
		return nil, err
	}
	switch {
	case resp.Exceptional != nil:
		return nil, resp.Exceptional.Err()
	case resp.Providers == nil:
		return nil, ErrEmptyResponse
	}
	return resp.Providers.Providers, nil
}

// QueryTable fetches PV values over a time window as one frame.
func (c *HTTPClient) QueryTable(ctx context.Context, q models.DataQuery) (models.DataFrame, error) {
	var resp TableResponse
	if err := c.call(ctx, c.endpoints.Query, PathQueryTable, q, &resp); err != nil {
		return models.DataFrame{}, err
	}
	switch {
	case resp.Exceptional != nil:
		return models.DataFrame{}, resp.Exceptional.Err()
	case resp.Table == nil:
		return models.DataFrame{}, ErrEmptyResponse
	}
	return *resp.Table, nil
}

// QueryDataSets searches datasets.
func (c *HTTPClient) QueryDataSets(ctx context.Context, criteria models.DataSetCriteria) ([]models.DataSet, error) {
	var resp DataSetsResponse
	if err := c.call(ctx, c.endpoints.Annotation, PathQueryDataSets, criteria, &resp); err != nil {
		return nil, err
	}
	switch {
	case resp.Exceptional != nil:
		return nil, resp.Exceptional.Err()
	case resp.DataSets == nil:
		return nil, ErrEmptyResponse
	}
	return resp.DataSets.DataSets, nil
}

// SaveDataSet creates or updates a dataset and returns its id.
func (c *HTTPClient) SaveDataSet(ctx context.Context, ds models.DataSet) (string, error) {
	return c.save(ctx, PathSaveDataSet, ds)
}

// QueryAnnotations searches annotations.
func (c *HTTPClient) QueryAnnotations(ctx context.Context, criteria models.AnnotationCriteria) ([]models.Annotation, error) {
	var resp AnnotationsResponse
	if err := c.call(ctx, c.endpoints.Annotation, PathQueryAnnotations, criteria, &resp); err != nil {
		return nil, err
	}
	switch {
	case resp.Exceptional != nil:
		return nil, resp.Exceptional.Err()
	case resp.Annotations == nil:
		return nil, ErrEmptyResponse
	}
	return resp.Annotations.Annotations, nil
}

// SaveAnnotation creates or updates an annotation and returns its id.
func (c *HTTPClient) SaveAnnotation(ctx context.Context, a models.Annotation) (string, error) {
	return c.save(ctx, PathSaveAnnotation, a)
}

func (c *HTTPClient) save(ctx context.Context, path string, req any) (string, error) {
	var resp SaveResponse
	if err := c.call(ctx, c.endpoints.Annotation, path, req, &resp); err != nil {
		return "", err
	}
	switch {
	case resp.Exceptional != nil:
		return "", resp.Exceptional.Err()
	case resp.Saved == nil || resp.Saved.ID == "":
		return "", ErrEmptyResponse
	}
	return resp.Saved.ID, nil
}

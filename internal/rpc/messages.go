package rpc

import (
	"github.com/dp-desktop/client/internal/models"
)

// Service routes.
const (
	PathRegisterProvider   = "/dp/v1/ingestion/register-provider"
	PathIngestData         = "/dp/v1/ingestion/ingest-data"
	PathQueryPvMetadata    = "/dp/v1/query/pv-metadata"
	PathQueryProviders     = "/dp/v1/query/providers"
	PathQueryTable         = "/dp/v1/query/table"
	PathQueryDataSets      = "/dp/v1/annotation/query-datasets"
	PathSaveDataSet        = "/dp/v1/annotation/save-dataset"
	PathQueryAnnotations   = "/dp/v1/annotation/query-annotations"
	PathSaveAnnotation     = "/dp/v1/annotation/save-annotation"
	PathSubscribeDataEvent = "/dp/v1/ingestion-stream/subscribe"
)

// ContentTypeMsgpack is the media type of request and response bodies.
const ContentTypeMsgpack = "application/msgpack"

// ExceptionalResult is the failure arm of every response envelope.
type ExceptionalResult struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Err converts the result to an error.
func (r *ExceptionalResult) Err() error {
	return &ExceptionalError{Kind: r.Kind, Message: r.Message}
}

// Exceptional result kinds.
const (
	KindReject   = "REJECT"
	KindError    = "ERROR"
	KindNotFound = "NOT_FOUND"
)

type RegisterProviderRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

type RegisterProviderResult struct {
	ProviderID    string `json:"providerId"`
	ProviderName  string `json:"providerName"`
	IsNewProvider bool   `json:"isNewProvider"`
}

// Response envelopes. Exactly one of the two pointers is set.

type RegisterProviderResponse struct {
	Exceptional *ExceptionalResult      `json:"exceptionalResult,omitempty"`
	Result      *RegisterProviderResult `json:"registrationResult,omitempty"`
}

type IngestDataResponse struct {
	Exceptional *ExceptionalResult  `json:"exceptionalResult,omitempty"`
	Ack         *models.IngestStats `json:"ackResult,omitempty"`
}

type PvMetadataResult struct {
	PvInfos []models.PvInfo `json:"pvInfos"`
}

type PvMetadataResponse struct {
	Exceptional *ExceptionalResult `json:"exceptionalResult,omitempty"`
	Metadata    *PvMetadataResult  `json:"metadataResult,omitempty"`
}

type ProvidersResult struct {
	Providers []models.Provider `json:"providers"`
}

type ProvidersResponse struct {
	Exceptional *ExceptionalResult `json:"exceptionalResult,omitempty"`
	Providers   *ProvidersResult   `json:"providersResult,omitempty"`
}

type TableResponse struct {
	Exceptional *ExceptionalResult `json:"exceptionalResult,omitempty"`
	Table       *models.DataFrame  `json:"tableResult,omitempty"`
}

type DataSetsResult struct {
	DataSets []models.DataSet `json:"dataSets"`
}

type DataSetsResponse struct {
	Exceptional *ExceptionalResult `json:"exceptionalResult,omitempty"`
	DataSets    *DataSetsResult    `json:"dataSetsResult,omitempty"`
}

type AnnotationsResult struct {
	Annotations []models.Annotation `json:"annotations"`
}

type AnnotationsResponse struct {
	Exceptional *ExceptionalResult `json:"exceptionalResult,omitempty"`
	Annotations *AnnotationsResult `json:"annotationsResult,omitempty"`
}

type SaveResult struct {
	ID string `json:"id"`
}

type SaveResponse struct {
	Exceptional *ExceptionalResult `json:"exceptionalResult,omitempty"`
	Saved       *SaveResult        `json:"saveResult,omitempty"`
}

// StreamMessageType discriminates frames on the event stream.
type StreamMessageType string

const (
	// client -> server
	StreamSubscribe StreamMessageType = "subscribe"
	StreamCancel    StreamMessageType = "cancel"

	// server -> client
	StreamAck         StreamMessageType = "ack"
	StreamEvent       StreamMessageType = "event"
	StreamCancelled   StreamMessageType = "cancelled"
	StreamExceptional StreamMessageType = "exceptional"
)

// StreamMessage is one binary websocket frame on the event stream.
type StreamMessage struct {
	Type           StreamMessageType              `json:"type"`
	SubscriptionID string                         `json:"subscriptionId,omitempty"`
	Subscribe      *models.SubscriptionDescriptor `json:"subscribe,omitempty"`
	Event          *models.DataEvent              `json:"event,omitempty"`
	Exceptional    *ExceptionalResult             `json:"exceptional,omitempty"`
	Timestamp      int64                          `json:"timestamp"`
}

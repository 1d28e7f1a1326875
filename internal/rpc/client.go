// Package rpc is the client side of the data-platform services: ingestion,
// query, annotation and the ingestion event stream.
package rpc

import (
	"context"

	"github.com/dp-desktop/client/internal/models"
)

// Client is the logical RPC surface used by the App session. Implementations
// must be safe for concurrent use.
type Client interface {
	RegisterProvider(ctx context.Context, req RegisterProviderRequest) (RegisterProviderResult, error)
	IngestData(ctx context.Context, req models.IngestRequest) (models.IngestStats, error)

	QueryPvMetadata(ctx context.Context, q models.PvMetadataQuery) ([]models.PvInfo, error)
	QueryProviders(ctx context.Context, c models.ProviderCriteria) ([]models.Provider, error)
	QueryTable(ctx context.Context, q models.DataQuery) (models.DataFrame, error)

	QueryDataSets(ctx context.Context, c models.DataSetCriteria) ([]models.DataSet, error)
	SaveDataSet(ctx context.Context, ds models.DataSet) (string, error)
	QueryAnnotations(ctx context.Context, c models.AnnotationCriteria) ([]models.Annotation, error)
	SaveAnnotation(ctx context.Context, a models.Annotation) (string, error)

	SubscribeDataEvent(ctx context.Context, d models.SubscriptionDescriptor) (EventStream, error)
}

// EventStream is an open data event subscription.
type EventStream interface {
	// ID is the server-assigned subscription id.
	ID() string
	// Recv blocks for the next event. It returns io.EOF once the stream has
	// ended normally.
	Recv() (models.DataEvent, error)
	// Cancel asks the server to end the subscription and waits until the
	// stream is closed or ctx expires.
	Cancel(ctx context.Context) error
}

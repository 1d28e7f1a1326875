// Package simulator is an in-memory stand-in for the data platform services.
// It speaks the same msgpack envelopes and event stream as the real
// platform so the client can be developed and tested against it.
package simulator

import (
	"io"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dp-desktop/client/internal/logging"
	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/rpc"
	"github.com/dp-desktop/client/internal/storage"
)

var logger = logging.For("simulator")

// Handler serves the unary RPCs of every service.
type Handler struct {
	store storage.Store
	hub   *Hub
}

var (
	_ IngestionHandler  = (*Handler)(nil)
	_ QueryHandler      = (*Handler)(nil)
	_ AnnotationHandler = (*Handler)(nil)
)

// NewHandler creates a handler over store. Ingested values are published
// to hub.
func NewHandler(store storage.Store, hub *Hub) *Handler {
	return &Handler{store: store, hub: hub}
}

// decode reads a msgpack request body into v.
func decode(c echo.Context, v any) error {
	if ct := c.Request().Header.Get(echo.HeaderContentType); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != rpc.ContentTypeMsgpack {
			return NewUnsupportedMediaTypeError(ct)
		}
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return NewBadRequestError("failed to read request body", err)
	}
	if err := rpc.Unmarshal(body, v); err != nil {
		return NewBadRequestError("invalid msgpack body", err)
	}
	return nil
}

// encode writes v as a msgpack response.
func encode(c echo.Context, v any) error {
	data, err := rpc.Marshal(v)
	if err != nil {
		return NewInternalError("failed to encode response", err)
	}
	return c.Blob(http.StatusOK, rpc.ContentTypeMsgpack, data)
}

// HandleRegisterProvider registers a provider by name.
func (h *Handler) HandleRegisterProvider(c echo.Context) error {
	var req rpc.RegisterProviderRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	p, isNew, err := h.store.RegisterProvider(models.Provider{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
		Attributes:  req.Attributes,
	})
	if err != nil {
		return encode(c, rpc.RegisterProviderResponse{Exceptional: exceptional(err)})
	}
	if isNew {
		logger.Infof("[Provider %s] registered %q", logging.ShortID(p.ID), p.Name)
	}
	return encode(c, rpc.RegisterProviderResponse{Result: &rpc.RegisterProviderResult{
		ProviderID:    p.ID,
		ProviderName:  p.Name,
		IsNewProvider: isNew,
	}})
}

// HandleIngestData stores data frames and publishes them to subscribers.
func (h *Handler) HandleIngestData(c echo.Context) error {
	var req models.IngestRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	if req.ProviderID == "" {
		return NewValidationError("providerId")
	}

	stats, err := h.store.Ingest(req)
	if err != nil {
		return encode(c, rpc.IngestDataResponse{Exceptional: exceptional(err)})
	}
	logger.Infof("[Ingest %s] %d frame(s), %d value(s), %d PV(s)",
		logging.ShortID(req.RequestID), stats.FrameCount, stats.ValueCount, stats.PvCount)

	for _, f := range req.Frames {
		h.hub.PublishFrame(f)
	}
	return encode(c, rpc.IngestDataResponse{Ack: &stats})
}

// HandleQueryPvMetadata describes PVs by name list or pattern.
func (h *Handler) HandleQueryPvMetadata(c echo.Context) error {
	var q models.PvMetadataQuery
	if err := decode(c, &q); err != nil {
		return err
	}
	infos, err := h.store.PvInfos(q)
	if err != nil {
		return encode(c, rpc.PvMetadataResponse{Exceptional: exceptional(err)})
	}
	return encode(c, rpc.PvMetadataResponse{Metadata: &rpc.PvMetadataResult{PvInfos: infos}})
}

// HandleQueryProviders searches providers.
func (h *Handler) HandleQueryProviders(c echo.Context) error {
	var criteria models.ProviderCriteria
	if err := decode(c, &criteria); err != nil {
		return err
	}
	providers := h.store.Providers(criteria)
	return encode(c, rpc.ProvidersResponse{Providers: &rpc.ProvidersResult{Providers: providers}})
}

// HandleQueryTable returns PV values over a window as one frame.
func (h *Handler) HandleQueryTable(c echo.Context) error {
	var q models.DataQuery
	if err := decode(c, &q); err != nil {
		return err
	}
	frame, err := h.store.Table(q)
	if err != nil {
		return encode(c, rpc.TableResponse{Exceptional: exceptional(err)})
	}
	return encode(c, rpc.TableResponse{Table: &frame})
}

// HandleQueryDataSets searches datasets.
func (h *Handler) HandleQueryDataSets(c echo.Context) error {
	var criteria models.DataSetCriteria
	if err := decode(c, &criteria); err != nil {
		return err
	}
	dataSets := h.store.DataSets(criteria)
	return encode(c, rpc.DataSetsResponse{DataSets: &rpc.DataSetsResult{DataSets: dataSets}})
}

// HandleSaveDataSet creates or replaces a dataset.
func (h *Handler) HandleSaveDataSet(c echo.Context) error {
	var ds models.DataSet
	if err := decode(c, &ds); err != nil {
		return err
	}
	id, err := h.store.SaveDataSet(ds)
	if err != nil {
		return encode(c, rpc.SaveResponse{Exceptional: exceptional(err)})
	}
	logger.Infof("[DataSet %s] saved %q", logging.ShortID(id), ds.Name)
	return encode(c, rpc.SaveResponse{Saved: &rpc.SaveResult{ID: id}})
}

// HandleQueryAnnotations searches annotations.
func (h *Handler) HandleQueryAnnotations(c echo.Context) error {
	var criteria models.AnnotationCriteria
	if err := decode(c, &criteria); err != nil {
		return err
	}
	annotations := h.store.Annotations(criteria)
	return encode(c, rpc.AnnotationsResponse{Annotations: &rpc.AnnotationsResult{Annotations: annotations}})
}

// HandleSaveAnnotation creates or replaces an annotation.
func (h *Handler) HandleSaveAnnotation(c echo.Context) error {
	var an models.Annotation
	if err := decode(c, &an); err != nil {
		return err
	}
	id, err := h.store.SaveAnnotation(an)
	if err != nil {
		return encode(c, rpc.SaveResponse{Exceptional: exceptional(err)})
	}
	logger.Infof("[Annotation %s] saved %q", logging.ShortID(id), an.Name)
	return encode(c, rpc.SaveResponse{Saved: &rpc.SaveResult{ID: id}})
}

// interfaces.go - Handler interface definitions
package simulator

import "github.com/labstack/echo/v4"

// HealthHandler reports liveness.
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// IngestionHandler serves the ingestion service.
type IngestionHandler interface {
	HandleRegisterProvider(c echo.Context) error
	HandleIngestData(c echo.Context) error
}

// QueryHandler serves the query service.
type QueryHandler interface {
	HandleQueryPvMetadata(c echo.Context) error
	HandleQueryProviders(c echo.Context) error
	HandleQueryTable(c echo.Context) error
}

// AnnotationHandler serves the annotation service.
type AnnotationHandler interface {
	HandleQueryDataSets(c echo.Context) error
	HandleSaveDataSet(c echo.Context) error
	HandleQueryAnnotations(c echo.Context) error
	HandleSaveAnnotation(c echo.Context) error
}

// StreamHandler serves the ingestion event stream.
type StreamHandler interface {
	HandleSubscribe(c echo.Context) error
}

// routes.go - Route registration and server lifecycle
package simulator

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dp-desktop/client/internal/logging"
	"github.com/dp-desktop/client/internal/rpc"
	"github.com/dp-desktop/client/internal/storage"
)

// Dependencies holds everything the server is built from.
type Dependencies struct {
	Store          storage.Store
	Version        string
	BodyLimit      string
	RequestLogging bool
	EventInterval  time.Duration
}

// Handlers holds all handler instances
type Handlers struct {
	Health     HealthHandler
	Ingestion  IngestionHandler
	Query      QueryHandler
	Annotation AnnotationHandler
	Stream     StreamHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies, hub *Hub) *Handlers {
	h := NewHandler(deps.Store, hub)
	return &Handlers{
		Health:     NewHealthHandler(deps.Version, hub),
		Ingestion:  h,
		Query:      h,
		Annotation: h,
		Stream:     NewStreamHandler(hub),
	}
}

// RegisterRoutes registers every service route with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/health", handlers.Health.HandleHealth)

	e.POST(rpc.PathRegisterProvider, handlers.Ingestion.HandleRegisterProvider)
	e.POST(rpc.PathIngestData, handlers.Ingestion.HandleIngestData)

	e.POST(rpc.PathQueryPvMetadata, handlers.Query.HandleQueryPvMetadata)
	e.POST(rpc.PathQueryProviders, handlers.Query.HandleQueryProviders)
	e.POST(rpc.PathQueryTable, handlers.Query.HandleQueryTable)

	e.POST(rpc.PathQueryDataSets, handlers.Annotation.HandleQueryDataSets)
	e.POST(rpc.PathSaveDataSet, handlers.Annotation.HandleSaveDataSet)
	e.POST(rpc.PathQueryAnnotations, handlers.Annotation.HandleQueryAnnotations)
	e.POST(rpc.PathSaveAnnotation, handlers.Annotation.HandleSaveAnnotation)

	e.GET(rpc.PathSubscribeDataEvent, handlers.Stream.HandleSubscribe)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, deps *Dependencies) {
	e.HTTPErrorHandler = ErrorHandler
	e.Logger = logging.For("http")

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10,
	}))
	if deps.RequestLogging {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Skipper: func(c echo.Context) bool {
				return c.Request().URL.Path == "/health"
			},
			Output: logging.Writer(),
		}))
	}
	if deps.BodyLimit != "" {
		e.Use(middleware.BodyLimit(deps.BodyLimit))
	}
}

// Server is a running simulator.
type Server struct {
	Echo   *echo.Echo
	hub    *Hub
	ticker *Ticker
}

// New builds a server. A nil store gets a fresh MemoryStore.
func New(deps Dependencies) *Server {
	if deps.Store == nil {
		deps.Store = storage.NewMemoryStore()
	}
	hub := NewHub()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	SetupMiddleware(e, &deps)
	RegisterRoutes(e, NewHandlers(&deps, hub))

	return &Server{
		Echo:   e,
		hub:    hub,
		ticker: NewTicker(deps.Store, hub, deps.EventInterval, time.Now().UnixNano()),
	}
}

// Hub exposes the subscription hub.
func (s *Server) Hub() *Hub { return s.hub }

// Run serves on addr until ctx is done, then ends every subscription and
// shuts down within shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.ticker.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("[Server] listening on %s", addr)
		errCh <- s.Echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := s.Echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Infof("[Server] stopped")
	return nil
}

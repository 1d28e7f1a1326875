// handlers_health.go - Health check handlers
package simulator

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	hub     *Hub
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, hub *Hub) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		hub:     hub,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"version":       h.version,
		"subscriptions": h.hub.Len(),
	})
}

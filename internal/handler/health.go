package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ServiceName identifies this backend in health and root responses.
const ServiceName = "devvibe-backend"

// Health is the liveness check used by load balancers and monitoring.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": ServiceName})
}

// Root describes the service and lists its public endpoints.
func Root(endpoints []string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"service":   ServiceName,
			"message":   "Welcome to the DevVibe backend",
			"endpoints": endpoints,
		})
	}
}

package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 2 * time.Second

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/healthz", s.handleHealth)
	if s.metricsHandler != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metricsHandler))
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	status := http.StatusOK
	checks := make(map[string]string, len(s.healthChecks))

	for _, hc := range s.healthChecks {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
		err := hc.Check(ctx)
		cancel()

		if err != nil {
			checks[hc.Name] = "unhealthy"
			status = http.StatusServiceUnavailable
		} else {
			checks[hc.Name] = "ok"
		}
	}

	return c.JSON(status, map[string]any{
		"status": http.StatusText(status),
		"checks": checks,
	})
}

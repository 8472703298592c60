package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	apperrors "github.com/alexlover8/rate-it-or-hate-it-sub001/internal/platform/errors"
)

func (s *Server) registerRoutes() {
	s.echo.Use(requestIDMiddleware())
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(apperrors.Middleware())

	s.registerHealthRoutes()

	api := s.echo.Group("/api",
		newRateLimiter(s.config.HTTPRatePerSecond, s.config.HTTPRateBurst),
		s.resolveIdentity,
	)
	api.GET("/items/:id/eligibility", s.handleCheckEligibility)
	api.POST("/items/:id/votes", s.handleCastVote)
	api.DELETE("/items/:id/votes", s.handleDeleteVote)
	api.GET("/items/:id/stats", s.handleGetStats)
	api.GET("/me", s.handleMe)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}

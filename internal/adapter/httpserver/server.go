package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/domain"
	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/identity"
	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/platform/config"
)

// voteService is the slice of the application layer the handlers need.
type voteService interface {
	CheckEligibility(ctx context.Context, voter domain.Identity, itemID string) domain.Eligibility
	CastVote(ctx context.Context, voter domain.Identity, itemID string, vt domain.VoteType) domain.VoteResult
	DeleteVote(ctx context.Context, voter domain.Identity, itemID string) (bool, error)
	GetStats(ctx context.Context, voter domain.Identity, itemID string) (*domain.ItemStats, error)
	GetProfile(ctx context.Context, voter domain.Identity) (*domain.User, error)
}

// HealthCheck is a named readiness check for a backing service.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app      voteService
	resolver *identity.Resolver

	metricsHandler http.Handler
	healthChecks   []HealthCheck
}

func NewServer(cfg *config.Config, app voteService, resolver *identity.Resolver, metricsHandler http.Handler, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		app:            app,
		resolver:       resolver,
		metricsHandler: metricsHandler,
		healthChecks:   healthChecks,
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/adapter/gamification"
	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/adapter/httpserver"
	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/adapter/memory"
	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/adapter/metrics"
	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/adapter/postgres"
	appredis "github.com/alexlover8/rate-it-or-hate-it-sub001/internal/adapter/redis"
	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/app"
	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/domain"
	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/identity"
	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/platform/config"
	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/platform/logging"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized.
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

// setupVoteStore prefers Redis; without REDIS_URL the engine runs on
// the in-process store, which only holds for a single node.
func setupVoteStore(cfg *config.Config) (domain.VoteStore, *goredis.Client) {
	if cfg.RedisURL == "" {
		slog.Warn("REDIS_URL not set, using in-process vote store (single node only)")
		return memory.NewStore(), nil
	}

	client, err := appredis.NewClient(context.Background(), cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return appredis.NewVoteStore(client), client
}

func runGracefulShutdown(cfg *config.Config, srv *httpserver.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	store, redisClient := setupVoteStore(cfg)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	userRepo := postgres.NewUserRepo(pool)

	var hook domain.GamificationHook = gamification.Noop{}
	if cfg.GamificationURL != "" {
		hook = gamification.NewWebhook(cfg.GamificationURL)
	}

	registry := metrics.NewRegistry()
	voteMetrics := metrics.NewVoteMetrics(registry)

	svc := app.NewService(store, userRepo, hook, voteMetrics, clock)

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}
	resolver := identity.NewResolver(sessionStore)

	healthChecks := []httpserver.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
	}
	if redisClient != nil {
		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	srv := httpserver.NewServer(cfg, svc, resolver, metrics.Handler(registry), healthChecks)

	done := runGracefulShutdown(cfg, srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}

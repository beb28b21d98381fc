// Package main provides the entrypoint for the LoyalHOOD status worker. The
// worker consumes status check and cleanup jobs published by the API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/loyalhood/loyalhood/internal/api/handler"
	"github.com/loyalhood/loyalhood/internal/api/middleware"
	"github.com/loyalhood/loyalhood/internal/config"
	"github.com/loyalhood/loyalhood/internal/database"
	"github.com/loyalhood/loyalhood/internal/monitor"
	"github.com/loyalhood/loyalhood/internal/telemetry"
	"github.com/loyalhood/loyalhood/internal/website"
	"github.com/loyalhood/loyalhood/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// receiverHealth reports the result store and whether the subscription
// receiver is active.
type receiverHealth struct {
	repo      website.Repository
	receiving *atomic.Bool
}

func (h receiverHealth) Ping(ctx context.Context) error { return h.repo.Ping(ctx) }
func (h receiverHealth) Running() bool                  { return h.receiving.Load() }

func main() {
	const serviceName = "loyalhood-status-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().Str("build_time", BuildTime).Msg("starting LoyalHOOD status worker")

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if !cfg.PubSub.Enabled() {
		log.Fatal().Msg("PUBSUB_PROJECT_ID is required for the worker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		Logger:         &log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	monitorMetrics, err := monitor.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize monitor metrics")
	}

	// Jobs from one worker are only visible to the API through a shared store.
	dbConfig := database.ConfigFromEnv()
	if !dbConfig.Enabled {
		log.Fatal().Msg("DB_HOST is required for the worker")
	}
	pool, err := database.Connect(ctx, dbConfig, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	repo := website.NewPostgresRepository(pool)

	mon := monitor.New(monitor.Config{
		Sites:      cfg.Sites,
		Repository: repo,
		Prober: monitor.NewProber(monitor.ProberConfig{
			Timeout:   cfg.ProbeTimeout(),
			UserAgent: "LoyalHOOD-StatusMonitor/" + Version,
		}),
		Metrics:     monitorMetrics,
		Logger:      log,
		Concurrency: cfg.ProbeConcurrency,
		Retention:   cfg.Retention(),
	})

	pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        cfg.PubSub.ProjectID,
		SubscriptionName: cfg.PubSub.Subscription,
		Executor:         worker.NewExecutor(mon, log),
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pubsub handler")
	}
	defer func() {
		if closeErr := pubsubHandler.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close pubsub client")
		}
	}()

	var receiving atomic.Bool
	ops := handler.NewOpsHandler(receiverHealth{repo: repo, receiving: &receiving}, Version, log)

	// Worker also exposes a health endpoint for Cloud Run
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Get("/health", ops.HealthCheck)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	receiveDone := make(chan struct{})
	go func() {
		defer close(receiveDone)
		receiving.Store(true)
		defer receiving.Store(false)

		if err := pubsubHandler.Start(ctx); err != nil {
			log.Error().Err(err).Msg("pubsub receive stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-receiveDone:
	}

	log.Info().Msg("shutting down worker")
	cancel()
	<-receiveDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

// Package main provides the entrypoint for the LoyalHOOD status API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/loyalhood/loyalhood/internal/api"
	"github.com/loyalhood/loyalhood/internal/api/handler"
	"github.com/loyalhood/loyalhood/internal/api/middleware"
	"github.com/loyalhood/loyalhood/internal/auth"
	"github.com/loyalhood/loyalhood/internal/config"
	"github.com/loyalhood/loyalhood/internal/database"
	"github.com/loyalhood/loyalhood/internal/monitor"
	"github.com/loyalhood/loyalhood/internal/telemetry"
	"github.com/loyalhood/loyalhood/internal/website"
	"github.com/loyalhood/loyalhood/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "loyalhood-status-api"

	mintSubject := flag.String("mint-token", "", "print an admin token for `subject` and exit")
	tokenTTL := flag.Duration("token-ttl", auth.DefaultTokenExpiry, "lifetime of tokens minted with -mint-token")
	flag.Parse()

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{SigningKey: cfg.AdminJWTKey})

	if *mintSubject != "" {
		token, expiresAt, err := jwtService.GenerateAdminToken(*mintSubject, *tokenTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to mint admin token")
		}
		fmt.Println(token)
		log.Info().Str("subject", *mintSubject).Time("expires_at", expiresAt).Msg("admin token minted")
		return
	}

	log.Info().
		Str("build_time", BuildTime).
		Int("sites", len(cfg.Sites)).
		Msg("starting LoyalHOOD status API")

	ctx := context.Background()

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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize HTTP metrics")
	}
	monitorMetrics, err := monitor.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize monitor metrics")
	}

	repo, closeRepo := openRepository(ctx, log)
	defer closeRepo()

	mon := monitor.New(monitor.Config{
		Sites:      cfg.Sites,
		Repository: repo,
		Prober: monitor.NewProber(monitor.ProberConfig{
			Timeout:   cfg.ProbeTimeout(),
			UserAgent: "LoyalHOOD-StatusMonitor/" + Version,
		}),
		Metrics:     monitorMetrics,
		Logger:      log,
		Interval:    cfg.CheckInterval(),
		Concurrency: cfg.ProbeConcurrency,
		Retention:   cfg.Retention(),
	})

	trigger, closeTrigger := newTrigger(ctx, cfg, mon, log)
	defer closeTrigger()

	if !jwtService.Enabled() {
		log.Warn().Msg("ADMIN_JWT_KEY not set - admin endpoints are disabled")
	}

	hub := handler.NewStreamHub(handler.StreamConfig{
		Source:  mon,
		Origins: cfg.CORSOrigins,
		Metrics: httpMetrics,
		Logger:  log,
	})
	mon.Subscribe(hub.OnCheckCycle)

	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     httpMetrics,
		Monitor:     mon,
		Trigger:     trigger,
		TokenAuth:   jwtService,
		CORSOrigins: cfg.CORSOrigins,
		Stream:      hub,
	})

	mon.Start(ctx)

	// No WriteTimeout: it would cut long-lived stream connections.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	mon.Stop()
	if local, ok := trigger.(*worker.LocalTrigger); ok {
		local.Wait()
	}

	log.Info().Msg("server stopped")
}

// openRepository connects to PostgreSQL when DB_HOST is set and falls back to
// the in-memory store otherwise.
func openRepository(ctx context.Context, log zerolog.Logger) (website.Repository, func()) {
	dbConfig := database.ConfigFromEnv()
	if !dbConfig.Enabled {
		log.Warn().Msg("DB_HOST not set - using in-memory result store")
		return website.NewInMemoryRepository(), func() {}
	}

	pool, err := database.Connect(ctx, dbConfig, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	repo := website.NewPostgresRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		pool.Close()
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	return repo, pool.Close
}

// newTrigger publishes jobs to the worker when Pub/Sub is configured and runs
// them in-process otherwise.
func newTrigger(ctx context.Context, cfg config.Config, mon *monitor.Monitor, log zerolog.Logger) (worker.Trigger, func()) {
	if !cfg.PubSub.Enabled() {
		return worker.NewLocalTrigger(worker.NewExecutor(mon, log), worker.DefaultJobTimeout, log), func() {}
	}

	trigger, err := worker.NewPubSubTrigger(ctx, cfg.PubSub.ProjectID, cfg.PubSub.Topic, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pubsub trigger")
	}
	log.Info().
		Str("project_id", cfg.PubSub.ProjectID).
		Str("topic", cfg.PubSub.Topic).
		Msg("status jobs dispatched via pubsub")

	return trigger, func() {
		if err := trigger.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close pubsub trigger")
		}
	}
}

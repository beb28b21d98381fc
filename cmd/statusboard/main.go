// Package main provides the LoyalHOOD terminal status board. It polls the
// status API and redraws the board on every update and clock tick.
package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/loyalhood/loyalhood/internal/config"
	"github.com/loyalhood/loyalhood/internal/dashboard"
	"github.com/loyalhood/loyalhood/internal/resilience"
	"github.com/loyalhood/loyalhood/internal/statusclient"
)

// Version is set at compile time via ldflags.
var Version = "dev"

const clearScreen = "\x1b[H\x1b[2J"

// board serializes redraws coming from the poll and clock goroutines.
type board struct {
	mu     sync.Mutex
	poller *dashboard.Poller
	dir    dashboard.Directory
	plain  bool
	log    zerolog.Logger
}

func (b *board) draw() {
	b.mu.Lock()
	defer b.mu.Unlock()

	view := dashboard.Render(b.poller.Snapshot(), b.poller.Now(), b.dir)

	var buf bytes.Buffer
	if !b.plain {
		buf.WriteString(clearScreen)
	}
	if err := view.WriteText(&buf, b.plain); err != nil {
		b.log.Error().Err(err).Msg("failed to render status board")
		return
	}
	if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
		b.log.Error().Err(err).Msg("failed to write status board")
	}
}

func main() {
	apiURL := flag.String("api", "", "status API base URL (default: STATUS_API_URL or http://localhost:8080)")
	plain := flag.Bool("plain", dashboard.PlainOutput(os.Stdout), "disable colors and screen clearing (default: on when stdout is not a terminal)")
	clock := flag.Bool("clock", true, "redraw every second to keep the clock current")
	flag.Parse()

	// The board owns stdout; logs go to stderr.
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().
		Timestamp().
		Str("service", "loyalhood-statusboard").
		Str("version", Version).
		Logger()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *apiURL != "" {
		cfg.APIURL = *apiURL
	}

	hosts := make([]string, len(cfg.Sites))
	for i, s := range cfg.Sites {
		hosts[i] = s.Host
	}

	registry := resilience.NewRegistry()
	client := statusclient.NewClient(statusclient.ClientConfig{
		BaseURL:  cfg.APIURL,
		Hosts:    hosts,
		Registry: registry,
		Timeout:  cfg.ClientTimeout(),
	})

	b := &board{dir: dashboard.NewDirectory(cfg.Sites), plain: *plain, log: log}

	pollerCfg := dashboard.PollerConfig{
		Client:   client,
		Hosts:    hosts,
		Logger:   log,
		Interval: cfg.PollInterval(),
		OnUpdate: func(*statusclient.SystemSnapshot) { b.draw() },
	}
	if *clock {
		pollerCfg.OnClock = func(time.Time) { b.draw() }
	}
	b.poller = dashboard.NewPoller(pollerCfg)

	log.Info().
		Str("api_url", cfg.APIURL).
		Dur("interval", cfg.PollInterval()).
		Msg("status board started")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b.poller.Start(ctx)
	b.draw()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	b.poller.Stop()

	for _, h := range registry.AllHealth() {
		log.Info().
			Str("client", h.Name).
			Str("state", h.Status()).
			Msg("status API client health")
	}
	log.Info().Msg("status board stopped")
}

package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/loyalhood/loyalhood/internal/api/middleware"
	"github.com/loyalhood/loyalhood/internal/monitor"
)

const (
	// DefaultStreamKeepAlive is the interval at which the overview is resent
	// when no check cycle completes in the meantime.
	DefaultStreamKeepAlive = 30 * time.Second

	streamWriteTimeout = 5 * time.Second
	streamLoadTimeout  = 5 * time.Second
)

// OverviewSource provides the overview pushed to stream clients.
type OverviewSource interface {
	LatestStatus(ctx context.Context) (*monitor.Overview, error)
}

// StreamConfig holds configuration for the stream hub.
type StreamConfig struct {
	Source OverviewSource

	// Origins are the browser origins allowed to connect in addition to the
	// serving host. "*" allows any origin.
	Origins []string

	// KeepAlive is the resend interval. Default: 30 seconds
	KeepAlive time.Duration

	// Metrics counts open connections. Optional.
	Metrics *middleware.Metrics

	Logger zerolog.Logger
}

// StreamHub pushes the websites overview to websocket clients after every
// check cycle.
type StreamHub struct {
	source    OverviewSource
	upgrader  websocket.Upgrader
	keepAlive time.Duration
	metrics   *middleware.Metrics
	logger    zerolog.Logger

	mu      sync.Mutex
	clients map[chan struct{}]struct{}
}

// NewStreamHub creates a new StreamHub.
func NewStreamHub(cfg StreamConfig) *StreamHub {
	keepAlive := cfg.KeepAlive
	if keepAlive <= 0 {
		keepAlive = DefaultStreamKeepAlive
	}

	h := &StreamHub{
		source:    cfg.Source,
		keepAlive: keepAlive,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		clients:   make(map[chan struct{}]struct{}),
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: originChecker(cfg.Origins)}
	return h
}

// Notify wakes every connected client. It never blocks.
func (h *StreamHub) Notify() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.clients {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// OnCheckCycle adapts Notify to monitor.Monitor.Subscribe.
func (h *StreamHub) OnCheckCycle(*monitor.RunResult) {
	h.Notify()
}

// Clients returns the number of connected clients.
func (h *StreamHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Stream handles GET /api/status/stream - websocket feed of the websites overview.
func (h *StreamHub) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	h.metrics.StreamOpened(ctx)
	defer h.metrics.StreamClosed(ctx)

	h.serve(ctx, conn)
}

func (h *StreamHub) serve(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	wake := h.register()
	defer h.unregister(wake)

	logger := h.logger.With().Str("request_id", middleware.GetRequestID(ctx)).Logger()
	logger.Debug().Msg("stream client connected")
	defer logger.Debug().Msg("stream client disconnected")

	if err := h.push(ctx, conn); err != nil {
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	// Clients never send data; reading detects the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-wake:
		case <-ticker.C:
		case <-done:
			return
		}
		if err := h.push(ctx, conn); err != nil {
			return
		}
	}
}

func (h *StreamHub) push(ctx context.Context, conn *websocket.Conn) error {
	loadCtx, cancel := context.WithTimeout(ctx, streamLoadTimeout)
	defer cancel()

	overview, err := h.source.LatestStatus(loadCtx)
	if err != nil {
		// Keep the connection; the next cycle may succeed.
		h.logger.Warn().Err(err).Msg("stream: failed to load status")
		return nil
	}

	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(NewWebsitesResponse(overview))
}

func (h *StreamHub) register() chan struct{} {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *StreamHub) unregister(ch chan struct{}) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

// originChecker accepts requests without an Origin header, same-host
// origins, and the configured origins.
func originChecker(origins []string) func(r *http.Request) bool {
	allowAll := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.ToLower(strings.TrimSuffix(o, "/"))] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		if allowed[strings.ToLower(origin)] {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		return host == strings.ToLower(u.Host)
	}
}

// Package dashboard keeps a live status snapshot up to date and derives the
// status display from it.
package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/loyalhood/loyalhood/internal/statusclient"
)

// Defaults for PollerConfig.
const (
	DefaultPollInterval  = 30 * time.Second
	DefaultClockInterval = time.Second
)

// Fetcher retrieves status data from the backend.
type Fetcher interface {
	FetchAll(ctx context.Context) (*statusclient.SystemSnapshot, error)
	FetchUptime(ctx context.Context) ([]statusclient.UptimePoint, error)
}

// PollerConfig holds configuration for creating a Poller.
type PollerConfig struct {
	// Client fetches status data. Required.
	Client Fetcher

	// Hosts is the static set of monitored hostnames.
	Hosts []string

	Logger zerolog.Logger

	// Interval is the time between polls.
	// Default: 30 seconds
	Interval time.Duration

	// ClockInterval is the time between clock ticks.
	// Default: 1 second
	ClockInterval time.Duration

	// OnUpdate is called after every applied snapshot. Optional.
	OnUpdate func(*statusclient.SystemSnapshot)

	// OnClock is called on every clock tick. Optional.
	OnClock func(time.Time)
}

// Poller owns the poll and clock timers of one status display. The snapshot
// it holds is only ever replaced, never modified.
type Poller struct {
	client        Fetcher
	hosts         []string
	logger        zerolog.Logger
	interval      time.Duration
	clockInterval time.Duration
	onUpdate      func(*statusclient.SystemSnapshot)
	onClock       func(time.Time)

	snapshot atomic.Pointer[statusclient.SystemSnapshot]
	now      atomic.Int64

	// mu serializes snapshot replacement against Stop.
	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPoller creates a poller. Nothing runs until Start.
func NewPoller(cfg PollerConfig) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	clockInterval := cfg.ClockInterval
	if clockInterval <= 0 {
		clockInterval = DefaultClockInterval
	}

	p := &Poller{
		client:        cfg.Client,
		hosts:         cfg.Hosts,
		logger:        cfg.Logger,
		interval:      interval,
		clockInterval: clockInterval,
		onUpdate:      cfg.OnUpdate,
		onClock:       cfg.OnClock,
	}
	now := time.Now()
	p.now.Store(now.UnixNano())
	p.snapshot.Store(statusclient.NewInitialSnapshot(cfg.Hosts, now))
	return p
}

// Start installs a fresh all-checking snapshot, polls once immediately and
// then on every interval. A poller can be started once.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	now := time.Now()
	p.now.Store(now.UnixNano())
	p.snapshot.Store(statusclient.NewInitialSnapshot(p.hosts, now))

	p.wg.Add(2)
	go p.pollLoop(ctx)
	go p.clockLoop(ctx)

	p.logger.Debug().
		Dur("interval", p.interval).
		Int("hosts", len(p.hosts)).
		Msg("status poller started")
}

// Stop cancels both timers and any in-flight fetch. Results that arrive after
// Stop are discarded. Stop is idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Debug().Msg("status poller stopped")
}

// Snapshot returns the current snapshot.
func (p *Poller) Snapshot() *statusclient.SystemSnapshot {
	return p.snapshot.Load()
}

// Now returns the time of the last clock tick.
func (p *Poller) Now() time.Time {
	return time.Unix(0, p.now.Load())
}

func (p *Poller) pollLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.spawnPoll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A slow poll may still be running; ticks are not serialized.
			p.spawnPoll(ctx)
		}
	}
}

func (p *Poller) spawnPoll(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Poll(ctx)
	}()
}

func (p *Poller) clockLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.clockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			p.now.Store(t.UnixNano())
			if p.onClock != nil {
				p.onClock(t)
			}
		}
	}
}

// Poll runs one poll tick: the status overview first, then the uptime series.
// A failed fetch is logged and leaves the snapshot unchanged.
func (p *Poller) Poll(ctx context.Context) {
	fetched, err := p.client.FetchAll(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to fetch website status")
		return
	}
	p.apply(func(cur *statusclient.SystemSnapshot) *statusclient.SystemSnapshot {
		return statusclient.Merge(cur, fetched)
	})

	series, err := p.client.FetchUptime(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to fetch uptime data")
		return
	}
	p.apply(func(cur *statusclient.SystemSnapshot) *statusclient.SystemSnapshot {
		return cur.WithUptime(series)
	})
}

// apply replaces the snapshot with build(current) unless the poller has been
// stopped.
func (p *Poller) apply(build func(*statusclient.SystemSnapshot) *statusclient.SystemSnapshot) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		p.logger.Debug().Msg("discarding status result received after stop")
		return
	}
	next := build(p.snapshot.Load())
	p.snapshot.Store(next)
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(next)
	}
}

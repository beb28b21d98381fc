package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/loyalhood/loyalhood/internal/website"
)

// Defaults applied by New when the config leaves a field unset.
const (
	DefaultInterval    = 30 * time.Second
	DefaultConcurrency = 3
	DefaultRetention   = 30 * 24 * time.Hour
)

// Config holds configuration for creating a Monitor.
type Config struct {
	// Sites are the websites checked on each cycle.
	// If empty, uses website.DefaultSites.
	Sites []website.Site

	// Repository stores check results. Required.
	Repository website.Repository

	// Prober performs the checks. If nil, a default prober is used.
	Prober *Prober

	// Metrics records probe outcomes. Optional.
	Metrics *Metrics

	Logger zerolog.Logger

	// Interval is the pause between background check cycles.
	// Default: 30 seconds
	Interval time.Duration

	// Concurrency is the number of sites probed at once.
	// Default: 3
	Concurrency int

	// Retention is how long results are kept by Cleanup.
	// Default: 30 days
	Retention time.Duration
}

// Monitor runs check cycles and serves status queries from stored results.
type Monitor struct {
	sites       []website.Site
	repo        website.Repository
	prober      *Prober
	metrics     *Metrics
	logger      zerolog.Logger
	interval    time.Duration
	concurrency int
	retention   time.Duration
	now         func() time.Time

	listenersMu sync.RWMutex
	listeners   []func(*RunResult)

	loopMu  sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}

	lastRun atomic.Pointer[RunResult]
}

// New creates a new Monitor.
func New(cfg Config) *Monitor {
	sites := cfg.Sites
	if len(sites) == 0 {
		sites = website.DefaultSites()
	}

	prober := cfg.Prober
	if prober == nil {
		prober = NewProber(ProberConfig{})
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}

	return &Monitor{
		sites:       sites,
		repo:        cfg.Repository,
		prober:      prober,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		interval:    interval,
		concurrency: concurrency,
		retention:   retention,
		now:         time.Now,
	}
}

// Sites returns the monitored sites in configuration order.
func (m *Monitor) Sites() []website.Site {
	out := make([]website.Site, len(m.sites))
	copy(out, m.sites)
	return out
}

// Site looks up a monitored site by host.
func (m *Monitor) Site(host string) (website.Site, bool) {
	for _, s := range m.sites {
		if s.Host == host {
			return s, true
		}
	}
	return website.Site{}, false
}

// Subscribe registers fn to be called after every check cycle.
func (m *Monitor) Subscribe(fn func(*RunResult)) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// RunResult contains the result of a check cycle.
type RunResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Total     int
	Online    int
	Degraded  int
	Offline   int
	Failed    int
	Results   []*website.CheckResult
	Errors    []CheckError
}

// CheckError represents a failure to record a check.
type CheckError struct {
	Website string
	Error   string
}

// CheckAll probes every site with a bounded worker pool and stores the results.
// A result that cannot be stored is counted as failed and the site is reported
// offline in the returned RunResult.
func (m *Monitor) CheckAll(ctx context.Context) *RunResult {
	startTime := m.now()
	result := &RunResult{
		StartTime: startTime,
		Total:     len(m.sites),
	}

	m.logger.Debug().
		Int("sites", result.Total).
		Int("concurrency", m.concurrency).
		Msg("starting website check cycle")

	sitesChan := make(chan website.Site, len(m.sites))
	resultsChan := make(chan siteResult, len(m.sites))

	var wg sync.WaitGroup
	for i := 0; i < m.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.checkWorker(ctx, sitesChan, resultsChan)
		}()
	}

	for _, s := range m.sites {
		sitesChan <- s
	}
	close(sitesChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for sr := range resultsChan {
		if sr.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, CheckError{
				Website: sr.result.Website,
				Error:   sr.err.Error(),
			})
			sr.result.Status = website.StatusOffline
		}
		switch sr.result.Status {
		case website.StatusOnline:
			result.Online++
		case website.StatusDegraded:
			result.Degraded++
		default:
			result.Offline++
		}
		result.Results = append(result.Results, sr.result)
	}

	result.EndTime = m.now()
	result.Duration = result.EndTime.Sub(startTime)
	m.metrics.RecordCycle(result.Duration)
	m.lastRun.Store(result)

	m.logger.Info().
		Dur("duration", result.Duration).
		Int("online", result.Online).
		Int("degraded", result.Degraded).
		Int("offline", result.Offline).
		Int("failed", result.Failed).
		Msg("website check cycle completed")

	m.notify(result)
	return result
}

type siteResult struct {
	result *website.CheckResult
	err    error
}

func (m *Monitor) checkWorker(ctx context.Context, sites <-chan website.Site, results chan<- siteResult) {
	for site := range sites {
		select {
		case <-ctx.Done():
			results <- siteResult{
				result: website.NewCheckResult(site.Host, website.StatusOffline, 0, 0),
				err:    ctx.Err(),
			}
		default:
			results <- m.checkSite(ctx, site)
		}
	}
}

func (m *Monitor) checkSite(ctx context.Context, site website.Site) siteResult {
	res := m.prober.Probe(ctx, site)
	m.metrics.RecordProbe(res)

	if err := m.repo.Insert(ctx, res); err != nil {
		m.logger.Error().
			Err(err).
			Str("website", site.Host).
			Msg("failed to store check result")
		return siteResult{result: res, err: fmt.Errorf("store result: %w", err)}
	}

	m.logger.Debug().
		Str("website", site.Host).
		Str("status", string(res.Status)).
		Int("response_time_ms", res.ResponseTimeMs).
		Int("status_code", res.StatusCode).
		Msg("website checked")

	return siteResult{result: res}
}

func (m *Monitor) notify(result *RunResult) {
	m.listenersMu.RLock()
	listeners := make([]func(*RunResult), len(m.listeners))
	copy(listeners, m.listeners)
	m.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(result)
	}
}

// LastRun returns the most recent check cycle, or nil before the first one.
func (m *Monitor) LastRun() *RunResult {
	return m.lastRun.Load()
}

// Overview is the latest status of every monitored site.
type Overview struct {
	Websites    map[string]website.LatestStatus
	Overall     website.Overall
	LastUpdated time.Time
}

// LatestStatus returns the newest stored result for each site. Sites that
// have never been checked are reported as checking.
func (m *Monitor) LatestStatus(ctx context.Context) (*Overview, error) {
	now := m.now().UTC()
	overview := &Overview{
		Websites:    make(map[string]website.LatestStatus, len(m.sites)),
		LastUpdated: now,
	}

	statuses := make([]website.Status, 0, len(m.sites))
	for _, s := range m.sites {
		latest, err := m.repo.Latest(ctx, s.Host)
		switch {
		case errors.Is(err, website.ErrNoStatusData):
			overview.Websites[s.Host] = website.Checking(s.Host, now)
		case err != nil:
			return nil, fmt.Errorf("latest status for %s: %w", s.Host, err)
		default:
			overview.Websites[s.Host] = website.FromResult(latest)
		}
		statuses = append(statuses, overview.Websites[s.Host].Status)
	}

	overview.Overall = website.CalculateOverall(statuses)
	return overview, nil
}

// Website returns the newest stored result for one site.
// Returns website.ErrUnknownWebsite for hosts that are not monitored and
// website.ErrNoStatusData when the site has not been checked yet.
func (m *Monitor) Website(ctx context.Context, host string) (*website.LatestStatus, error) {
	if _, ok := m.Site(host); !ok {
		return nil, website.ErrUnknownWebsite
	}

	latest, err := m.repo.Latest(ctx, host)
	if err != nil {
		return nil, err
	}

	status := website.FromResult(latest)
	return &status, nil
}

// Uptime returns the hourly availability over the last 24 hours.
func (m *Monitor) Uptime(ctx context.Context) ([]website.UptimeHour, error) {
	now := m.now()
	from, to := website.UptimeWindow(now)

	results, err := m.repo.ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	return website.CalculateUptime(results, now), nil
}

// Cleanup deletes results older than the retention period.
func (m *Monitor) Cleanup(ctx context.Context) (int64, error) {
	return m.CleanupOlderThan(ctx, m.retention)
}

// CleanupOlderThan deletes results older than age. A non-positive age uses
// the retention period.
func (m *Monitor) CleanupOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	if age <= 0 {
		age = m.retention
	}
	cutoff := m.now().UTC().Add(-age)

	deleted, err := m.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old results: %w", err)
	}

	m.logger.Info().
		Int64("deleted", deleted).
		Time("cutoff", cutoff).
		Msg("cleaned up old status data")

	return deleted, nil
}

// Ping verifies the result store is reachable.
func (m *Monitor) Ping(ctx context.Context) error {
	return m.repo.Ping(ctx)
}

// Start launches the background check loop. The first cycle runs immediately.
// Calling Start on a running monitor is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()

	if m.running.Load() {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running.Store(true)

	m.logger.Info().
		Dur("interval", m.interval).
		Int("sites", len(m.sites)).
		Msg("website monitoring started")

	go m.loop(loopCtx, m.done)
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer m.running.Store(false)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.CheckAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckAll(ctx)
		}
	}
}

// Stop ends the background loop and waits for the current cycle to finish.
func (m *Monitor) Stop() {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()

	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil

	m.logger.Info().Msg("website monitoring stopped")
}

// Running reports whether the background loop is active.
func (m *Monitor) Running() bool {
	return m.running.Load()
}

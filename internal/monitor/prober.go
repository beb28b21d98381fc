// Package monitor probes the configured websites, records the outcomes and
// answers status and uptime queries over the stored history.
package monitor

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/loyalhood/loyalhood/internal/website"
)

// DefaultProbeTimeout bounds a single probe.
const DefaultProbeTimeout = 5 * time.Second

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ProberConfig holds configuration for the website prober.
type ProberConfig struct {
	// HTTPClient is the client used for probes. Redirects are followed.
	HTTPClient HTTPDoer

	// Timeout bounds each probe. A probe that times out is recorded with a
	// response time equal to the timeout.
	Timeout time.Duration

	// UserAgent is sent with every probe.
	UserAgent string
}

// Prober performs single-shot availability checks.
type Prober struct {
	httpClient HTTPDoer
	timeout    time.Duration
	userAgent  string
	now        func() time.Time
}

// NewProber creates a new prober.
func NewProber(cfg ProberConfig) *Prober {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "LoyalHOOD-StatusMonitor/1.0"
	}

	return &Prober{
		httpClient: httpClient,
		timeout:    timeout,
		userAgent:  userAgent,
		now:        time.Now,
	}
}

// Probe issues one GET against the site and classifies the outcome.
// HTTP 200 is online, 4xx is degraded, anything else is offline.
func (p *Prober) Probe(ctx context.Context, site website.Site) *website.CheckResult {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := p.now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, site.ProbeURL(), http.NoBody)
	if err != nil {
		return website.NewCheckResult(site.Host, website.StatusOffline, 0, 0)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return website.NewCheckResult(site.Host, website.StatusOffline, int(p.timeout.Milliseconds()), 0)
		}
		return website.NewCheckResult(site.Host, website.StatusOffline, 0, 0)
	}
	// Response time is time to headers; a slow body does not count.
	elapsed := int(p.now().Sub(start).Milliseconds())

	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10)) //nolint:errcheck // drain for connection reuse

	return website.NewCheckResult(site.Host, Classify(resp.StatusCode), elapsed, resp.StatusCode)
}

// Classify maps an HTTP status code to a website status.
func Classify(code int) website.Status {
	switch {
	case code == http.StatusOK:
		return website.StatusOnline
	case code >= 400 && code < 500:
		return website.StatusDegraded
	default:
		return website.StatusOffline
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

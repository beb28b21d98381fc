// Package statusclient is a client for the LoyalHOOD status API.
package statusclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/loyalhood/loyalhood/internal/api/models"
	"github.com/loyalhood/loyalhood/internal/resilience"
	"github.com/loyalhood/loyalhood/internal/website"
)

const (
	// DefaultTimeout bounds every status API request.
	DefaultTimeout = 10 * time.Second

	// ClientName identifies the status API in the resilience registry.
	ClientName = "status-api"
)

// ErrFetchFailed is returned for any network error, timeout, non-2xx
// response or malformed body.
var ErrFetchFailed = errors.New("status fetch failed")

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the status API client.
type ClientConfig struct {
	// BaseURL is the API base URL, e.g. https://loyalhood.xyz. Required.
	BaseURL string

	// Hosts is the static set of monitored hostnames. Hosts outside this set
	// are ignored in responses. If empty, the default sites are used.
	Hosts []string

	// HTTPClient is the HTTP client to use.
	// If nil, a resilient client without retries is created.
	HTTPClient HTTPDoer

	// Registry receives the default client's health. Optional.
	Registry *resilience.Registry

	// Timeout for individual requests (default: 10s).
	Timeout time.Duration
}

// Client is a status API client.
type Client struct {
	baseURL    string
	hosts      map[string]bool
	hostList   []string
	httpClient HTTPDoer
	timeout    time.Duration
	now        func() time.Time
}

// NewClient creates a new status API client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// The poll is never retried; a failed tick waits for the next one.
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:     ClientName,
			Timeout:  timeout,
			Registry: cfg.Registry,
		})
	}

	hostList := cfg.Hosts
	if len(hostList) == 0 {
		for _, s := range website.DefaultSites() {
			hostList = append(hostList, s.Host)
		}
	}
	hosts := make(map[string]bool, len(hostList))
	for _, h := range hostList {
		hosts[h] = true
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		hosts:      hosts,
		hostList:   hostList,
		httpClient: httpClient,
		timeout:    timeout,
		now:        time.Now,
	}
}

// Hosts returns the configured hostnames.
func (c *Client) Hosts() []string {
	out := make([]string, len(c.hostList))
	copy(out, c.hostList)
	return out
}

// FetchAll retrieves the latest status of every website. The returned
// snapshot holds only configured hosts present in the response; combine it
// with the previous snapshot using Merge. It carries no uptime series.
func (c *Client) FetchAll(ctx context.Context) (*SystemSnapshot, error) {
	var resp models.WebsitesResponse
	if err := c.getJSON(ctx, "/api/status/websites", &resp); err != nil {
		return nil, err
	}

	snapshot := &SystemSnapshot{
		Endpoints:   make(map[string]EndpointStatus, len(c.hosts)),
		Overall:     website.Overall(resp.Overall),
		LastUpdated: resp.LastUpdated.Time(),
		FetchedAt:   c.now(),
	}
	for host, ws := range resp.Websites {
		if !c.hosts[host] {
			continue
		}
		snapshot.Endpoints[host] = toEndpoint(host, ws)
	}

	return snapshot, nil
}

// FetchUptime retrieves the hourly uptime of the last 24 hours.
func (c *Client) FetchUptime(ctx context.Context) ([]UptimePoint, error) {
	var resp models.UptimeResponse
	if err := c.getJSON(ctx, "/api/status/uptime", &resp); err != nil {
		return nil, err
	}

	points := make([]UptimePoint, len(resp.Uptime))
	for i, u := range resp.Uptime {
		points[i] = UptimePoint{
			Hour:       u.Hour,
			Percentage: u.Percentage,
			Incidents:  u.Incidents,
		}
	}
	return points, nil
}

// FetchWebsite retrieves the latest status of a single website.
func (c *Client) FetchWebsite(ctx context.Context, host string) (*EndpointStatus, error) {
	var resp models.WebsiteStatus
	if err := c.getJSON(ctx, "/api/status/websites/"+url.PathEscape(host), &resp); err != nil {
		return nil, err
	}

	status := toEndpoint(host, resp)
	return &status, nil
}

// TriggerCheck asks the backend to run a check cycle now. The backend answers
// before the cycle completes.
func (c *Client) TriggerCheck(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/status/check")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
	return nil
}

// Health retrieves the backend health.
func (c *Client) Health(ctx context.Context) (*models.Health, error) {
	var resp models.Health
	if err := c.getJSON(ctx, "/api/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrFetchFailed, path, err)
	}
	return nil
}

// do sends a request and returns the response only for 2xx statuses.
func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, http.NoBody)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: create request: %w", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %s %s: %w", ErrFetchFailed, method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: %s %s: unexpected status %d", ErrFetchFailed, method, path, resp.StatusCode)
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnClose releases the request timeout once the body is consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func toEndpoint(host string, ws models.WebsiteStatus) EndpointStatus {
	return EndpointStatus{
		Website:        host,
		Status:         website.Status(ws.Status),
		ResponseTimeMs: ws.ResponseTime,
		StatusCode:     ws.StatusCode,
		LastCheckedAt:  ws.LastChecked.Time(),
	}
}

// Package website provides the monitored website model, status aggregation and
// check-result storage.
package website

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository errors.
var (
	ErrNoStatusData   = errors.New("no status data found for website")
	ErrInvalidResult  = errors.New("invalid check result")
	ErrUnknownWebsite = errors.New("unknown website")
)

// Status is the availability state of a single website.
type Status string

const (
	StatusChecking Status = "checking"
	StatusOnline   Status = "online"
	StatusDegraded Status = "degraded"
	StatusOffline  Status = "offline"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusChecking, StatusOnline, StatusDegraded, StatusOffline:
		return true
	default:
		return false
	}
}

// Overall is the aggregate system status across all websites.
type Overall string

const (
	OverallChecking    Overall = "checking"
	OverallOperational Overall = "operational"
	OverallDegraded    Overall = "degraded"
	OverallOutage      Overall = "outage"
)

// Site describes a monitored website.
type Site struct {
	// Host is the hostname used as the status key (e.g. "host.loyalhood.xyz").
	Host string `yaml:"host"`

	// URL is the address probed. Defaults to https://<Host>.
	URL string `yaml:"url"`

	// DisplayName is the human-readable name shown on dashboards.
	DisplayName string `yaml:"display_name"`

	// Description is a one-line description of the service.
	Description string `yaml:"description"`
}

// ProbeURL returns the URL to probe for the site.
func (s Site) ProbeURL() string {
	if s.URL != "" {
		return s.URL
	}
	return "https://" + s.Host
}

// HostFromURL strips the scheme from a URL, yielding the status key.
func HostFromURL(rawURL string) string {
	host := strings.TrimPrefix(rawURL, "https://")
	host = strings.TrimPrefix(host, "http://")
	return strings.TrimSuffix(host, "/")
}

// DefaultSites returns the websites monitored out of the box.
func DefaultSites() []Site {
	return []Site{
		{
			Host:        "loyalhood.xyz",
			URL:         "https://loyalhood.xyz",
			DisplayName: "Main Website",
			Description: "Primary website and landing page",
		},
		{
			Host:        "host.loyalhood.xyz",
			URL:         "https://host.loyalhood.xyz",
			DisplayName: "Host Portal",
			Description: "Customer hosting portal",
		},
		{
			Host:        "pm.loyalhood.xyz",
			URL:         "https://pm.loyalhood.xyz",
			DisplayName: "Proxmox Panel",
			Description: "Proxmox virtualization management",
		},
	}
}

// CheckResult is one stored probe outcome for a website.
type CheckResult struct {
	ID             string
	Website        string
	Status         Status
	ResponseTimeMs int
	StatusCode     int
	CheckedAt      time.Time
	CreatedAt      time.Time
}

// NewCheckResult creates a result stamped with a fresh ID and the current time.
func NewCheckResult(site string, status Status, responseTimeMs, statusCode int) *CheckResult {
	now := time.Now().UTC()
	return &CheckResult{
		ID:             uuid.New().String(),
		Website:        site,
		Status:         status,
		ResponseTimeMs: responseTimeMs,
		StatusCode:     statusCode,
		CheckedAt:      now,
		CreatedAt:      now,
	}
}

// Validate checks the result before it is persisted.
func (r *CheckResult) Validate() error {
	if r.Website == "" {
		return errors.Join(ErrInvalidResult, errors.New("website is required"))
	}
	if !r.Status.Valid() {
		return errors.Join(ErrInvalidResult, errors.New("unknown status "+string(r.Status)))
	}
	if r.ResponseTimeMs < 0 {
		return errors.Join(ErrInvalidResult, errors.New("response time must be non-negative"))
	}
	return nil
}

// LatestStatus is the most recent known state of a website.
type LatestStatus struct {
	Website        string
	Status         Status
	ResponseTimeMs int
	StatusCode     int
	LastChecked    time.Time
}

// FromResult converts a stored check result into a LatestStatus.
func FromResult(r *CheckResult) LatestStatus {
	return LatestStatus{
		Website:        r.Website,
		Status:         r.Status,
		ResponseTimeMs: r.ResponseTimeMs,
		StatusCode:     r.StatusCode,
		LastChecked:    r.CheckedAt,
	}
}

// Checking returns the placeholder state used before a site has any data.
func Checking(site string, now time.Time) LatestStatus {
	return LatestStatus{
		Website:     site,
		Status:      StatusChecking,
		LastChecked: now,
	}
}

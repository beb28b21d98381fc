package models

import "github.com/loyalhood/loyalhood/internal/website"

// WebsiteStatus is the latest known state of one website.
type WebsiteStatus struct {
	Website      string    `json:"website"`
	Status       string    `json:"status"`
	ResponseTime int       `json:"responseTime"`
	LastChecked  Timestamp `json:"lastChecked"`
	StatusCode   int       `json:"statusCode"`
}

// WebsitesResponse is the response of GET /api/status/websites.
type WebsitesResponse struct {
	Websites    map[string]WebsiteStatus `json:"websites"`
	Overall     string                   `json:"overall"`
	LastUpdated Timestamp                `json:"lastUpdated"`
}

// UptimeEntry is the availability of all websites during one hour.
type UptimeEntry struct {
	Hour       int     `json:"hour"`
	Percentage float64 `json:"percentage"`
	Incidents  int     `json:"incidents"`
}

// UptimeResponse is the response of GET /api/status/uptime.
type UptimeResponse struct {
	Uptime []UptimeEntry `json:"uptime"`
}

// CleanupResponse is the response of DELETE /api/status/cleanup.
type CleanupResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

// NewWebsiteStatus converts a domain status to its API form.
func NewWebsiteStatus(s website.LatestStatus) WebsiteStatus {
	return WebsiteStatus{
		Website:      s.Website,
		Status:       string(s.Status),
		ResponseTime: s.ResponseTimeMs,
		LastChecked:  Timestamp(s.LastChecked),
		StatusCode:   s.StatusCode,
	}
}

// NewUptimeResponse converts hourly uptime to its API form.
func NewUptimeResponse(hours []website.UptimeHour) UptimeResponse {
	out := UptimeResponse{Uptime: make([]UptimeEntry, len(hours))}
	for i, h := range hours {
		out.Uptime[i] = UptimeEntry{
			Hour:       h.Hour,
			Percentage: h.Percentage,
			Incidents:  h.Incidents,
		}
	}
	return out
}

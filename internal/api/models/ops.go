package models

// Health is the response of GET /api/health.
type Health struct {
	Status     HealthStatus `json:"status"`
	Time       Timestamp    `json:"timestamp"`
	Database   string       `json:"database"`
	Monitoring string       `json:"monitoring"`
	Version    string       `json:"version,omitempty"`
}

// Database and monitoring states reported by the health endpoint.
const (
	DatabaseConnected    = "connected"
	DatabaseDisconnected = "disconnected"
	MonitoringActive     = "active"
	MonitoringInactive   = "inactive"
)

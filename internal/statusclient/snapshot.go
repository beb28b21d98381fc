package statusclient

import (
	"sort"
	"time"

	"github.com/loyalhood/loyalhood/internal/website"
)

// EndpointStatus is the last known state of one monitored hostname.
type EndpointStatus struct {
	Website        string
	Status         website.Status
	ResponseTimeMs int
	StatusCode     int
	LastCheckedAt  time.Time
}

// UptimePoint is the availability during one hour of the trailing day.
type UptimePoint struct {
	Hour       int
	Percentage float64
	Incidents  int
}

// SystemSnapshot is an immutable view of the whole system at one poll.
// Snapshots are never modified after construction; every update builds a new one.
type SystemSnapshot struct {
	Endpoints    map[string]EndpointStatus
	Overall      website.Overall
	UptimeSeries []UptimePoint
	LastUpdated  time.Time
	FetchedAt    time.Time
}

// NewInitialSnapshot returns the snapshot shown before the first successful
// poll: every host checking and no uptime history.
func NewInitialSnapshot(hosts []string, now time.Time) *SystemSnapshot {
	endpoints := make(map[string]EndpointStatus, len(hosts))
	for _, h := range hosts {
		endpoints[h] = EndpointStatus{Website: h, Status: website.StatusChecking}
	}
	return &SystemSnapshot{
		Endpoints: endpoints,
		Overall:   website.OverallChecking,
		FetchedAt: now,
	}
}

// Hosts returns the endpoint hostnames in sorted order.
func (s *SystemSnapshot) Hosts() []string {
	hosts := make([]string, 0, len(s.Endpoints))
	for h := range s.Endpoints {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

// Merge builds the snapshot that results from applying a fetched status
// overview to prev. Hosts present in next replace their entry; hosts only in
// prev keep their previous state. The uptime series is carried over from prev.
func Merge(prev, next *SystemSnapshot) *SystemSnapshot {
	if prev == nil {
		return next.clone()
	}

	out := &SystemSnapshot{
		Endpoints:    make(map[string]EndpointStatus, len(prev.Endpoints)),
		Overall:      next.Overall,
		UptimeSeries: prev.UptimeSeries,
		LastUpdated:  next.LastUpdated,
		FetchedAt:    next.FetchedAt,
	}
	for h, e := range prev.Endpoints {
		out.Endpoints[h] = e
	}
	for h, e := range next.Endpoints {
		out.Endpoints[h] = e
	}
	return out
}

// WithUptime returns a copy of s carrying the given uptime series.
func (s *SystemSnapshot) WithUptime(series []UptimePoint) *SystemSnapshot {
	out := s.clone()
	out.UptimeSeries = make([]UptimePoint, len(series))
	copy(out.UptimeSeries, series)
	return out
}

func (s *SystemSnapshot) clone() *SystemSnapshot {
	out := *s
	out.Endpoints = make(map[string]EndpointStatus, len(s.Endpoints))
	for h, e := range s.Endpoints {
		out.Endpoints[h] = e
	}
	return &out
}

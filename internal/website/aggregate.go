package website

import (
	"math"
	"time"
)

// UptimeWindowHours is the number of hourly buckets in the uptime history.
const UptimeWindowHours = 24

// CalculateOverall derives the system status from individual website statuses.
//
// All online is operational, all offline is an outage, any offline or degraded
// site makes the system degraded. Anything else (including no sites) is checking.
func CalculateOverall(statuses []Status) Overall {
	if len(statuses) == 0 {
		return OverallChecking
	}

	var online, offline, degraded int
	for _, s := range statuses {
		switch s {
		case StatusOnline:
			online++
		case StatusOffline:
			offline++
		case StatusDegraded:
			degraded++
		}
	}

	switch {
	case online == len(statuses):
		return OverallOperational
	case offline == len(statuses):
		return OverallOutage
	case offline > 0, degraded > 0:
		return OverallDegraded
	default:
		return OverallChecking
	}
}

// UptimeHour is the availability of all websites during one hour.
type UptimeHour struct {
	Hour       int
	Percentage float64
	Incidents  int
}

// CalculateUptime buckets results into the trailing 24 hours ending with the
// current hour. Hour 0 is the oldest bucket. Buckets without checks report 100%.
func CalculateUptime(results []*CheckResult, now time.Time) []UptimeHour {
	current := now.UTC().Truncate(time.Hour)
	windowStart := current.Add(-(UptimeWindowHours - 1) * time.Hour)

	var total, online [UptimeWindowHours]int
	for _, r := range results {
		checked := r.CheckedAt.UTC()
		if checked.Before(windowStart) || !checked.Before(current.Add(time.Hour)) {
			continue
		}
		idx := int(checked.Sub(windowStart) / time.Hour)
		total[idx]++
		if r.Status == StatusOnline {
			online[idx]++
		}
	}

	hours := make([]UptimeHour, UptimeWindowHours)
	for i := range hours {
		pct := 100.0
		if total[i] > 0 {
			pct = round1(float64(online[i]) / float64(total[i]) * 100)
		}
		hours[i] = UptimeHour{
			Hour:       i,
			Percentage: pct,
			Incidents:  total[i] - online[i],
		}
	}
	return hours
}

// UptimeWindow returns the [from, to) range covered by CalculateUptime.
func UptimeWindow(now time.Time) (time.Time, time.Time) {
	current := now.UTC().Truncate(time.Hour)
	return current.Add(-(UptimeWindowHours - 1) * time.Hour), current.Add(time.Hour)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

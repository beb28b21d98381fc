package website_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loyalhood/loyalhood/internal/website"
)

func TestCalculateOverall(t *testing.T) {
	tests := []struct {
		name     string
		statuses []website.Status
		expected website.Overall
	}{
		{
			name:     "no sites",
			statuses: nil,
			expected: website.OverallChecking,
		},
		{
			name:     "all online",
			statuses: []website.Status{website.StatusOnline, website.StatusOnline, website.StatusOnline},
			expected: website.OverallOperational,
		},
		{
			name:     "all offline",
			statuses: []website.Status{website.StatusOffline, website.StatusOffline},
			expected: website.OverallOutage,
		},
		{
			name:     "one offline",
			statuses: []website.Status{website.StatusOnline, website.StatusOffline, website.StatusOnline},
			expected: website.OverallDegraded,
		},
		{
			name:     "one degraded",
			statuses: []website.Status{website.StatusOnline, website.StatusDegraded},
			expected: website.OverallDegraded,
		},
		{
			name:     "offline and checking",
			statuses: []website.Status{website.StatusChecking, website.StatusOffline},
			expected: website.OverallDegraded,
		},
		{
			name:     "all checking",
			statuses: []website.Status{website.StatusChecking, website.StatusChecking},
			expected: website.OverallChecking,
		},
		{
			name:     "online and checking",
			statuses: []website.Status{website.StatusOnline, website.StatusChecking},
			expected: website.OverallChecking,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, website.CalculateOverall(tt.statuses))
		})
	}
}

func TestCalculateUptime_NoData(t *testing.T) {
	hours := website.CalculateUptime(nil, time.Now())

	require.Len(t, hours, website.UptimeWindowHours)
	for i, h := range hours {
		assert.Equal(t, i, h.Hour)
		assert.Equal(t, 100.0, h.Percentage)
		assert.Zero(t, h.Incidents)
	}
}

func TestCalculateUptime_Buckets(t *testing.T) {
	now := time.Date(2026, 10, 16, 14, 25, 0, 0, time.UTC)
	current := now.Truncate(time.Hour)

	results := []*website.CheckResult{
		// current hour: 2 online, 1 offline
		{Website: "a", Status: website.StatusOnline, CheckedAt: current.Add(1 * time.Minute)},
		{Website: "b", Status: website.StatusOnline, CheckedAt: current.Add(2 * time.Minute)},
		{Website: "c", Status: website.StatusOffline, CheckedAt: current.Add(3 * time.Minute)},
		// oldest hour in window: 1 degraded
		{Website: "a", Status: website.StatusDegraded, CheckedAt: current.Add(-23 * time.Hour)},
		// outside window
		{Website: "a", Status: website.StatusOffline, CheckedAt: current.Add(-24 * time.Hour)},
		{Website: "a", Status: website.StatusOffline, CheckedAt: current.Add(time.Hour)},
	}

	hours := website.CalculateUptime(results, now)
	require.Len(t, hours, 24)

	assert.Equal(t, 66.7, hours[23].Percentage)
	assert.Equal(t, 1, hours[23].Incidents)

	assert.Equal(t, 0.0, hours[0].Percentage)
	assert.Equal(t, 1, hours[0].Incidents)

	for _, h := range hours[1:23] {
		assert.Equal(t, 100.0, h.Percentage)
	}
}

func TestCalculateUptime_PercentageBounds(t *testing.T) {
	now := time.Now()
	var results []*website.CheckResult
	statuses := []website.Status{website.StatusOnline, website.StatusOffline, website.StatusDegraded}
	for i := 0; i < 300; i++ {
		results = append(results, &website.CheckResult{
			Website:   "loyalhood.xyz",
			Status:    statuses[i%len(statuses)],
			CheckedAt: now.Add(-time.Duration(i) * 5 * time.Minute),
		})
	}

	hours := website.CalculateUptime(results, now)
	require.Len(t, hours, 24)
	for _, h := range hours {
		assert.GreaterOrEqual(t, h.Percentage, 0.0)
		assert.LessOrEqual(t, h.Percentage, 100.0)
	}
}

func TestUptimeWindow(t *testing.T) {
	now := time.Date(2026, 10, 16, 14, 25, 0, 0, time.UTC)
	from, to := website.UptimeWindow(now)

	assert.Equal(t, time.Date(2026, 10, 15, 15, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC), to)
}

func TestSite_ProbeURL(t *testing.T) {
	assert.Equal(t, "https://example.com", website.Site{Host: "example.com"}.ProbeURL())
	assert.Equal(t, "http://localhost:8080", website.Site{Host: "x", URL: "http://localhost:8080"}.ProbeURL())
}

func TestHostFromURL(t *testing.T) {
	assert.Equal(t, "loyalhood.xyz", website.HostFromURL("https://loyalhood.xyz"))
	assert.Equal(t, "pm.loyalhood.xyz", website.HostFromURL("http://pm.loyalhood.xyz/"))
}

func TestCheckResult_Validate(t *testing.T) {
	valid := website.NewCheckResult("loyalhood.xyz", website.StatusOnline, 120, 200)
	require.NoError(t, valid.Validate())
	assert.NotEmpty(t, valid.ID)

	invalid := []*website.CheckResult{
		{Status: website.StatusOnline},
		{Website: "x", Status: "bogus"},
		{Website: "x", Status: website.StatusOnline, ResponseTimeMs: -1},
	}
	for _, r := range invalid {
		assert.ErrorIs(t, r.Validate(), website.ErrInvalidResult)
	}
}

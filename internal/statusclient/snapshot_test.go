package statusclient_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loyalhood/loyalhood/internal/statusclient"
	"github.com/loyalhood/loyalhood/internal/website"
)

func TestNewInitialSnapshot(t *testing.T) {
	now := time.Now()
	s := statusclient.NewInitialSnapshot(testHosts, now)

	require.Len(t, s.Endpoints, 3)
	for _, h := range testHosts {
		assert.Equal(t, website.StatusChecking, s.Endpoints[h].Status)
	}
	assert.Equal(t, website.OverallChecking, s.Overall)
	assert.Empty(t, s.UptimeSeries)
	assert.Equal(t, []string{"a.test", "b.test", "c.test"}, s.Hosts())
}

func TestMerge_AbsentHostRetained(t *testing.T) {
	prev := statusclient.NewInitialSnapshot(testHosts, time.Now()).WithUptime([]statusclient.UptimePoint{{Hour: 0, Percentage: 90}})
	prev = statusclient.Merge(prev, &statusclient.SystemSnapshot{
		Endpoints: map[string]statusclient.EndpointStatus{
			"c.test": {Website: "c.test", Status: website.StatusOnline, ResponseTimeMs: 33},
		},
		Overall: website.OverallDegraded,
	})

	next := &statusclient.SystemSnapshot{
		Endpoints: map[string]statusclient.EndpointStatus{
			"a.test": {Website: "a.test", Status: website.StatusOnline, ResponseTimeMs: 50},
			"b.test": {Website: "b.test", Status: website.StatusOffline},
		},
		Overall: website.OverallDegraded,
	}

	merged := statusclient.Merge(prev, next)

	require.Len(t, merged.Endpoints, 3)
	assert.Equal(t, website.StatusOnline, merged.Endpoints["c.test"].Status)
	assert.Equal(t, 33, merged.Endpoints["c.test"].ResponseTimeMs)
	assert.Equal(t, 50, merged.Endpoints["a.test"].ResponseTimeMs)
	assert.Equal(t, website.OverallDegraded, merged.Overall)
	assert.Len(t, merged.UptimeSeries, 1, "uptime carried over")
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	prev := statusclient.NewInitialSnapshot(testHosts, time.Now())
	next := &statusclient.SystemSnapshot{
		Endpoints: map[string]statusclient.EndpointStatus{
			"a.test": {Website: "a.test", Status: website.StatusOnline},
		},
		Overall: website.OverallOperational,
	}

	merged := statusclient.Merge(prev, next)
	merged.Endpoints["b.test"] = statusclient.EndpointStatus{Status: website.StatusOffline}

	assert.Equal(t, website.StatusChecking, prev.Endpoints["a.test"].Status)
	assert.Equal(t, website.StatusChecking, prev.Endpoints["b.test"].Status)
	assert.Len(t, next.Endpoints, 1)
}

func TestMerge_NilPrev(t *testing.T) {
	next := &statusclient.SystemSnapshot{
		Endpoints: map[string]statusclient.EndpointStatus{"a.test": {Status: website.StatusOnline}},
	}

	merged := statusclient.Merge(nil, next)
	require.NotSame(t, next, merged)
	assert.Len(t, merged.Endpoints, 1)
}

func TestWithUptime_Copies(t *testing.T) {
	series := []statusclient.UptimePoint{{Hour: 0, Percentage: 100}}
	s := statusclient.NewInitialSnapshot(testHosts, time.Now())

	withUptime := s.WithUptime(series)
	series[0].Percentage = 0

	assert.Empty(t, s.UptimeSeries)
	assert.Equal(t, 100.0, withUptime.UptimeSeries[0].Percentage)
}

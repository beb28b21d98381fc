package monitor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/loyalhood/loyalhood/internal/website"
)

const meterName = "github.com/loyalhood/loyalhood/internal/monitor"

// Metrics holds the OpenTelemetry instruments for website probes.
type Metrics struct {
	probeDuration metric.Float64Histogram
	probeTotal    metric.Int64Counter
	cycleDuration metric.Float64Histogram
}

// NewMetrics creates probe metrics on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	probeDuration, err := meter.Float64Histogram(
		"website.probe.duration",
		metric.WithDescription("Response time of website probes in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	probeTotal, err := meter.Int64Counter(
		"website.probe.total",
		metric.WithDescription("Total number of website probes by outcome"),
		metric.WithUnit("{probe}"),
	)
	if err != nil {
		return nil, err
	}

	cycleDuration, err := meter.Float64Histogram(
		"website.check_cycle.duration",
		metric.WithDescription("Duration of a full check cycle in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		probeDuration: probeDuration,
		probeTotal:    probeTotal,
		cycleDuration: cycleDuration,
	}, nil
}

// RecordProbe records one probe outcome.
func (m *Metrics) RecordProbe(result *website.CheckResult) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("website", result.Website),
		attribute.String("status", string(result.Status)),
	)

	// Use background context for metrics to avoid context cancellation issues
	ctx := context.TODO()
	m.probeDuration.Record(ctx, float64(result.ResponseTimeMs)/1000, attrs)
	m.probeTotal.Add(ctx, 1, attrs)
}

// RecordCycle records the duration of a check cycle.
func (m *Metrics) RecordCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.cycleDuration.Record(context.TODO(), d.Seconds())
}

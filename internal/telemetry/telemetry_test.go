package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/loyalhood/loyalhood/internal/telemetry"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "loyalhood-status-api",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		OTLPEndpoint:   "localhost:4317",
		Enabled:        false,
	})

	require.NoError(t, err)
	assert.NotNil(t, provider.Tracer)
	assert.NotNil(t, provider.Meter)

	// Disabled telemetry installs no SDK providers
	assert.Nil(t, provider.TracerProvider)
	assert.Nil(t, provider.MeterProvider)

	assert.NoError(t, provider.Shutdown(ctx))
}

func TestProvider_Shutdown_NilProviders(t *testing.T) {
	provider := &telemetry.Provider{}
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestProvider_Shutdown_FlushesTracer(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	provider := &telemetry.Provider{TracerProvider: tp}

	require.NoError(t, provider.Shutdown(context.Background()))

	// Tracers from a shut down provider no longer record.
	_, span := tp.Tracer("test").Start(context.Background(), "after-shutdown")
	assert.False(t, span.IsRecording())
}

func TestSampler(t *testing.T) {
	rootParams := func(id byte) sdktrace.SamplingParameters {
		var traceID trace.TraceID
		for i := range traceID {
			traceID[i] = id
		}
		return sdktrace.SamplingParameters{
			ParentContext: context.Background(),
			TraceID:       traceID,
			Name:          "GET /api/status/websites",
		}
	}

	tests := []struct {
		name     string
		ratio    float64
		id       byte
		wantKeep bool
	}{
		{name: "zero samples all", ratio: 0, id: 0xff, wantKeep: true},
		{name: "one samples all", ratio: 1, id: 0xff, wantKeep: true},
		{name: "ratio keeps low ids", ratio: 0.5, id: 0x00, wantKeep: true},
		{name: "ratio drops high ids", ratio: 0.5, id: 0xff, wantKeep: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := telemetry.Sampler(tt.ratio).ShouldSample(rootParams(tt.id))
			assert.Equal(t, tt.wantKeep, result.Decision == sdktrace.RecordAndSample)
		})
	}
}

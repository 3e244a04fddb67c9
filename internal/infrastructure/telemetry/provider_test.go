package telemetry_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shopsync/backend/internal/infrastructure/telemetry"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     1.0,
		ServiceName:       "shopsync-test",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer(telemetry.TracerName))
	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewTracerProvider_SamplingRatios(t *testing.T) {
	// the OTLP gRPC exporter connects lazily, so construction works without a collector
	for _, ratio := range []float64{-1, 0, 0.25, 1, 3} {
		t.Run(fmt.Sprintf("ratio %v", ratio), func(t *testing.T) {
			ctx := context.Background()
			tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
				Enabled:           true,
				CollectorEndpoint: "localhost:14317",
				SamplingRatio:     ratio,
				ServiceName:       "shopsync-test",
				ServiceVersion:    "test",
				Insecure:          true,
			}, zaptest.NewLogger(t))
			require.NoError(t, err)
			assert.True(t, tp.IsEnabled())

			_, span := tp.Tracer(telemetry.TracerName).Start(ctx, "probe")
			span.End()

			shutdownCtx, cancel := context.WithCancel(ctx)
			cancel()
			_ = tp.Shutdown(shutdownCtx)
		})
	}
}

func TestNewMeterProvider_Enabled(t *testing.T) {
	ctx := context.Background()
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.Config{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "shopsync-test",
		Insecure:          true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.True(t, mp.IsEnabled())

	_, err = telemetry.NewSyncMetrics(mp.Meter(telemetry.TracerName))
	require.NoError(t, err)

	shutdownCtx, cancel := context.WithCancel(ctx)
	cancel()
	_ = mp.Shutdown(shutdownCtx)
}

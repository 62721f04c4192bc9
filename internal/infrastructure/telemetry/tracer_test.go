package telemetry_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temba/backend/internal/infrastructure/config"
	"github.com/temba/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap/zaptest"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, config.TelemetryConfig{
		Enabled:     false,
		ServiceName: "temba-test",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestTracerProvider_EnableSpanProfiles_Disabled(t *testing.T) {
	tp, err := telemetry.NewTracerProvider(context.Background(), config.TelemetryConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, tp.EnableSpanProfiles())
	assert.False(t, tp.IsSpanProfilesEnabled())
}

// Requires a collector listening on TELEMETRY_TEST_ENDPOINT
func TestNewTracerProvider_Enabled(t *testing.T) {
	endpoint := os.Getenv("TELEMETRY_TEST_ENDPOINT")
	if endpoint == "" || testing.Short() {
		t.Skip("TELEMETRY_TEST_ENDPOINT not set")
	}
	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, config.TelemetryConfig{
		Enabled:           true,
		CollectorEndpoint: endpoint,
		SamplingRatio:     1.0,
		ServiceName:       "temba-test",
		Insecure:          true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.True(t, tp.IsEnabled())

	_, span := tp.Tracer("test").Start(ctx, "test-span")
	span.End()

	require.NoError(t, tp.EnableSpanProfiles())
	require.NoError(t, tp.EnableSpanProfiles())
	assert.True(t, tp.IsSpanProfilesEnabled())

	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))
}

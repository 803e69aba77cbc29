package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "collector:4317", stripScheme("http://collector:4317"))
	assert.Equal(t, "collector:4317", stripScheme("https://collector:4317"))
	assert.Equal(t, "collector:4317", stripScheme("collector:4317"))
	assert.Equal(t, "http://", stripScheme("http://"))
}

func TestSetupTracerInstallsProvider(t *testing.T) {
	// grpc.NewClient dials lazily, so no collector is needed here.
	shutdown, err := SetupTracer(context.Background(), "orders-service-test", "http://127.0.0.1:4317")
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "probe")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = shutdown(ctx)
}

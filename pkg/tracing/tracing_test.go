package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitDisabledIsNoop(t *testing.T) {
	p, err := Init(context.Background(), Config{Enabled: false}, nil)
	require.NoError(t, err)
	require.False(t, p.Enabled())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestSamplerSelection(t *testing.T) {
	require.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	require.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	require.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

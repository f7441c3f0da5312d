package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestInitialize_RejectsUnknownLevel(t *testing.T) {
	err := Initialize(Config{Level: "loud", Environment: "development"})
	assert.Error(t, err)
}

func TestInitialize_ProductionWritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(Config{
		Level:       "info",
		Environment: "production",
		LogDir:      dir,
		ServiceName: "mentorship-api",
	}))

	Info("hello")
	Sync()
	assert.FileExists(t, dir+"/app.log")
}

func TestTraceFields(t *testing.T) {
	assert.Empty(t, TraceFields(context.Background()))

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	fields := TraceFields(ctx)
	require.Len(t, fields, 2)
	assert.Equal(t, "trace_id", fields[0].Key)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields[0].String)
}

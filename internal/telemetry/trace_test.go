package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSpan_Disabled(t *testing.T) {
	require.NoError(t, Init(Options{}))
	ctx, span := StartSpan(context.Background(), "noop")
	span.End()
	_, _, ok := TraceFields(ctx)
	assert.False(t, ok)
	assert.False(t, Enabled())
}

func TestStartSpan_Exports(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Output: &buf}))

	ctx, span := StartSpan(context.Background(), "analysis.crosses")
	traceID, spanID, ok := TraceFields(ctx)
	span.End()
	require.True(t, ok)
	assert.Len(t, traceID, 32)
	assert.Len(t, spanID, 16)

	require.NoError(t, Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "analysis.crosses")
	assert.False(t, Enabled())
}

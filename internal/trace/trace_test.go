package trace_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"social-pilot/internal/trace"
)

func TestSpanSequence(t *testing.T) {
	ctx := trace.WithRequestAndSpan(context.Background(), "req-1", 0)
	assert.Equal(t, "0", trace.CurrentSpanID(ctx))

	reqID, span := trace.NextSpanID(ctx)
	assert.Equal(t, "req-1", reqID)
	assert.Equal(t, "1", span)

	_, span = trace.NextSpanID(ctx)
	assert.Equal(t, "2", span)
	assert.Equal(t, "2", trace.CurrentSpanID(ctx))
}

func TestBackgroundKeepsExistingTrace(t *testing.T) {
	ctx := trace.WithRequestAndSpan(context.Background(), "req-2", 0)
	assert.Equal(t, "req-2", trace.RequestIDFromContext(trace.Background(ctx)))

	fresh := trace.Background(context.Background())
	assert.Len(t, trace.RequestIDFromContext(fresh), 32)
}

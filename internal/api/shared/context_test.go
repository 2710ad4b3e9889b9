package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceID(t *testing.T) {
	t.Parallel() // Enable parallel execution

	assert.Empty(t, GetTraceID(context.Background()))

	ctx := SetTraceID(context.Background())
	traceID := GetTraceID(ctx)
	assert.Len(t, traceID, TraceIDLength*2)
	assert.Regexp(t, "^[0-9a-f]+$", traceID)

	other := GetTraceID(SetTraceID(context.Background()))
	assert.NotEqual(t, traceID, other)
}

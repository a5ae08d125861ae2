package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTraceIDContext(t *testing.T) {
	t.Run("adds provided trace ID to context", func(t *testing.T) {
		ctx := context.Background()
		traceID := "test-trace-123"

		newCtx := WithTraceID(ctx, traceID)
		require.NotNil(t, newCtx)

		assert.Equal(t, traceID, GetTraceID(newCtx))
	})

	t.Run("generates new trace ID when empty string provided", func(t *testing.T) {
		newCtx := WithTraceID(context.Background(), "")
		require.NotNil(t, newCtx)

		extracted := GetTraceID(newCtx)
		assert.NotEmpty(t, extracted)
		// UUID v4: 36 characters with hyphens
		assert.Len(t, extracted, 36)
	})

	t.Run("preserves other context values", func(t *testing.T) {
		type testKey string
		key := testKey("test-key")
		ctx := context.WithValue(context.Background(), key, "test-value")

		newCtx := WithTraceID(ctx, "trace-1")
		assert.Equal(t, "test-value", newCtx.Value(key))
		assert.Equal(t, "trace-1", GetTraceID(newCtx))
	})
}

func TestGetTraceID_MissingReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", GetTraceID(context.Background()))
}

func TestNewTraceID_Unique(t *testing.T) {
	a := NewTraceID()
	b := NewTraceID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

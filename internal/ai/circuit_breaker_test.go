package ai

import (
	"context"
	"fmt"
	"testing"
	"time"

	"resumeparser/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          60 * time.Second,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}
}

func TestCircuitBreakerDisabledIsNil(t *testing.T) {
	cfg := testBreakerConfig()
	cfg.Enabled = false

	cb := NewCircuitBreaker[string]("bedrock", cfg, testLogger)
	assert.Nil(t, cb)

	result, err := cb.Execute(func() (string, error) { return "direct", nil })
	require.NoError(t, err)
	assert.Equal(t, "direct", result)
	assert.True(t, cb.IsHealthy())
	assert.Equal(t, map[string]any{"enabled": false}, cb.GetStats())
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker[string]("bedrock", testBreakerConfig(), testLogger)
	require.NotNil(t, cb)

	stats := cb.GetStats()
	assert.Equal(t, "AI-bedrock", stats["name"])
	assert.Equal(t, "closed", stats["state"])
	assert.True(t, cb.IsHealthy())

	for range 2 {
		_, err := cb.Execute(func() (string, error) { return "", fmt.Errorf("model down") })
		assert.Error(t, err)
	}

	assert.False(t, cb.IsHealthy())
	assert.Equal(t, "open", cb.GetStats()["state"])

	calls := 0
	_, err := cb.Execute(func() (string, error) {
		calls++
		return "ok", nil
	})
	assert.Error(t, err)
	assert.Zero(t, calls)
}

func TestCircuitBreakerIgnoresCancelledCalls(t *testing.T) {
	cb := NewCircuitBreaker[string]("gemini", testBreakerConfig(), testLogger)

	for range 3 {
		_, err := cb.Execute(func() (string, error) { return "", context.Canceled })
		assert.ErrorIs(t, err, context.Canceled)
	}

	assert.True(t, cb.IsHealthy())
}

func TestModelCircuitBreakerIsLenient(t *testing.T) {
	cb := NewModelCircuitBreaker[string]("gemini", testBreakerConfig(), testLogger)
	require.NotNil(t, cb)
	assert.Equal(t, "AI-Model-gemini", cb.GetStats()["name"])

	for range 4 {
		_, _ = cb.Execute(func() (string, error) { return "", fmt.Errorf("lookup failed") })
	}
	assert.True(t, cb.IsHealthy())

	_, _ = cb.Execute(func() (string, error) { return "", fmt.Errorf("lookup failed") })
	assert.False(t, cb.IsHealthy())
}

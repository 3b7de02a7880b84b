package governance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterFailureThreshold(t *testing.T) {
	b := NewCircuitBreaker(BreakerConfig{FailureThreshold: 3, SuccessThreshold: 2, Cooldown: 30 * time.Second})

	require.NoError(t, b.Allow("ollama"))
	b.RecordFailure("ollama")
	b.RecordFailure("ollama")
	assert.Equal(t, BreakerClosed, b.State("ollama"))

	b.RecordFailure("ollama")
	assert.Equal(t, BreakerOpen, b.State("ollama"))
	assert.ErrorIs(t, b.Allow("ollama"), ErrProviderUnavailable)
}

func TestBreakerHalfOpenAfterCooldown(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := NewCircuitBreaker(BreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, Cooldown: 30 * time.Second}).
		WithClock(func() time.Time { return at })

	b.RecordFailure("gemini")
	assert.ErrorIs(t, b.Allow("gemini"), ErrProviderUnavailable)

	at = at.Add(31 * time.Second)
	require.NoError(t, b.Allow("gemini"), "cooldown elapsed, trial call admitted")
	assert.Equal(t, BreakerHalfOpen, b.State("gemini"))
}

func TestBreakerClosesAfterSuccessThreshold(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := NewCircuitBreaker(BreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, Cooldown: time.Second}).
		WithClock(func() time.Time { return at })

	b.RecordFailure("ollama")
	at = at.Add(2 * time.Second)
	require.NoError(t, b.Allow("ollama"))

	b.RecordSuccess("ollama")
	assert.Equal(t, BreakerHalfOpen, b.State("ollama"), "one success is not enough")

	b.RecordSuccess("ollama")
	assert.Equal(t, BreakerClosed, b.State("ollama"))
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := NewCircuitBreaker(BreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, Cooldown: time.Second}).
		WithClock(func() time.Time { return at })

	b.RecordFailure("ollama")
	at = at.Add(2 * time.Second)
	require.NoError(t, b.Allow("ollama"))

	b.RecordFailure("ollama")
	assert.Equal(t, BreakerOpen, b.State("ollama"))
	assert.ErrorIs(t, b.Allow("ollama"), ErrProviderUnavailable)
}

func TestBreakerSuccessResetsFailureStreak(t *testing.T) {
	b := NewCircuitBreaker(BreakerConfig{FailureThreshold: 3, SuccessThreshold: 1, Cooldown: time.Second})

	b.RecordFailure("ollama")
	b.RecordFailure("ollama")
	b.RecordSuccess("ollama")
	b.RecordFailure("ollama")
	b.RecordFailure("ollama")
	assert.Equal(t, BreakerClosed, b.State("ollama"), "streak broken by a success")
}

func TestBreakerIsolatesProviders(t *testing.T) {
	b := NewCircuitBreaker(BreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, Cooldown: time.Minute})

	b.RecordFailure("ollama")
	assert.ErrorIs(t, b.Allow("ollama"), ErrProviderUnavailable)
	assert.NoError(t, b.Allow("gemini"))
}

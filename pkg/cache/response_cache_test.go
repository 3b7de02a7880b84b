package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"How much is Botox?", "how much is botox?"},
		{"  how   much\tis botox?  ", "how much is botox?"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
}

func TestResponseCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c := NewResponseCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)

	org := uuid.New()
	msg := Normalize("How much is botox?")

	_, hit, err := c.Get(ctx, org, msg)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, org, msg, "Botox starts at 4500 baht."))

	reply, hit, err := c.Get(ctx, org, msg)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "Botox starts at 4500 baht.", reply)

	// A different phrasing with the same normal form shares the entry
	reply, hit, err = c.Get(ctx, org, Normalize("  HOW much IS botox? "))
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "Botox starts at 4500 baht.", reply)
}

func TestResponseCacheIsolatesOrganizations(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c := NewResponseCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)

	msg := Normalize("how much is botox?")
	require.NoError(t, c.Set(ctx, uuid.New(), msg, "reply-a"))

	_, hit, err := c.Get(ctx, uuid.New(), msg)
	require.NoError(t, err)
	assert.False(t, hit, "another org must never see a cached reply")
}

func TestResponseCacheExpires(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c := NewResponseCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)

	org := uuid.New()
	msg := Normalize("how much is botox?")
	require.NoError(t, c.Set(ctx, org, msg, "reply"))

	mr.FastForward(2 * time.Minute)

	_, hit, err := c.Get(ctx, org, msg)
	require.NoError(t, err)
	assert.False(t, hit)
}

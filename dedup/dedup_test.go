package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFingerprint(t *testing.T) {
	base := Fingerprint("user-1", "broken streetlight", 3.1234, 101.5678)

	assert.Equal(t, base, Fingerprint("user-1", "broken streetlight", 3.1234, 101.5678))
	assert.NotEqual(t, base, Fingerprint("user-2", "broken streetlight", 3.1234, 101.5678))
	assert.NotEqual(t, base, Fingerprint("user-1", "broken  streetlight", 3.1234, 101.5678))

	// Coordinates are rounded to 4 decimal places, so sub-11m jitter from the
	// same spot still collides.
	assert.Equal(t, base, Fingerprint("user-1", "broken streetlight", 3.12341, 101.56779))
	assert.NotEqual(t, base, Fingerprint("user-1", "broken streetlight", 3.1235, 101.5678))
}

func TestGuardWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	guard := NewGuard(rdb, DefaultWindow, zap.NewNop())

	ctx := context.Background()
	fp := Fingerprint("user-1", "suspicious person at block C", 3.1234, 101.5678)

	ok, err := guard.ShouldAccept(ctx, fp)
	require.NoError(t, err)
	assert.True(t, ok, "first submission passes")

	ok, err = guard.ShouldAccept(ctx, fp)
	require.NoError(t, err)
	assert.False(t, ok, "duplicate inside the window is rejected")

	other := Fingerprint("user-2", "suspicious person at block C", 3.1234, 101.5678)
	ok, err = guard.ShouldAccept(ctx, other)
	require.NoError(t, err)
	assert.True(t, ok, "different submitter is a different fingerprint")

	mr.FastForward(DefaultWindow + time.Second)

	ok, err = guard.ShouldAccept(ctx, fp)
	require.NoError(t, err)
	assert.True(t, ok, "window expiry readmits the fingerprint")
}

func TestGuardFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	guard := NewGuard(rdb, DefaultWindow, zap.NewNop())
	mr.Close()

	ok, err := guard.ShouldAccept(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.True(t, ok, "Redis outage must not block submissions")
}

package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(cooldown time.Duration, opts ...MemoryOption) (*MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	opts = append(opts, WithClock(clock.Now))
	return NewMemoryStore(cooldown, opts...), clock
}

func TestMemoryStore_BlocksWithinCooldown(t *testing.T) {
	s, clock := newTestStore(60 * time.Second)
	ctx := context.Background()

	assert.True(t, s.Allow(ctx, "1.2.3.4"))
	clock.Advance(30 * time.Second)
	assert.False(t, s.Allow(ctx, "1.2.3.4"))
}

func TestMemoryStore_AllowsAfterCooldown(t *testing.T) {
	s, clock := newTestStore(60 * time.Second)
	ctx := context.Background()

	assert.True(t, s.Allow(ctx, "1.2.3.4"))
	clock.Advance(61 * time.Second)
	assert.True(t, s.Allow(ctx, "1.2.3.4"))
}

func TestMemoryStore_ExactCooldownStillBlocked(t *testing.T) {
	s, clock := newTestStore(10 * time.Second)
	ctx := context.Background()

	require.True(t, s.Allow(ctx, "a"))
	clock.Advance(10 * time.Second)
	assert.False(t, s.Allow(ctx, "a"), "elapsed must exceed the cooldown")
}

func TestMemoryStore_BlockedCallDoesNotResetClock(t *testing.T) {
	s, clock := newTestStore(60 * time.Second)
	ctx := context.Background()

	require.True(t, s.Allow(ctx, "a"))
	clock.Advance(50 * time.Second)
	require.False(t, s.Allow(ctx, "a"))
	clock.Advance(11 * time.Second)
	assert.True(t, s.Allow(ctx, "a"), "cooldown counts from the last accepted call")
}

func TestMemoryStore_IdentifiersAreIndependent(t *testing.T) {
	s, _ := newTestStore(60 * time.Second)
	ctx := context.Background()

	assert.True(t, s.Allow(ctx, "a"))
	assert.True(t, s.Allow(ctx, "b"))
	assert.False(t, s.Allow(ctx, "a"))
}

func TestMemoryStore_EvictsOldestHalf(t *testing.T) {
	s, clock := newTestStore(time.Hour, WithMaxEntries(10))
	ctx := context.Background()

	for i := 0; i < 11; i++ {
		require.True(t, s.Allow(ctx, fmt.Sprintf("client-%02d", i)))
		clock.Advance(time.Second)
	}
	// 11 entries exceed the threshold; the 5 oldest are dropped.
	assert.Equal(t, 6, s.Len())

	// Evicted identifiers are forgotten and may submit again.
	assert.True(t, s.Allow(ctx, "client-00"))
	// Recent identifiers are still in cooldown.
	assert.False(t, s.Allow(ctx, "client-10"))
}

func TestMemoryStore_DefaultThreshold(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()
	for i := 0; i <= DefaultMaxEntries; i++ {
		s.Allow(ctx, fmt.Sprintf("ip-%d", i))
	}
	assert.LessOrEqual(t, s.Len(), DefaultMaxEntries/2+1)
}

package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(start time.Time) (*SlidingWindowLimiter, *time.Time) {
	now := start
	l := NewSlidingWindowLimiter()
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiterAllowsUpToMaxThenDenies(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1000, 0))

	for i := 0; i < maxGeneratePerWin; i++ {
		d := l.Check("caller-1", OpGenerate)
		require.True(t, d.Allowed, "request %d within the window should pass", i+1)
	}

	d := l.Check("caller-1", OpGenerate)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, rateLimitWindow)
}

func TestLimiterWindowReset(t *testing.T) {
	l, now := newTestLimiter(time.Unix(1000, 0))

	for i := 0; i < maxGeneratePerWin; i++ {
		require.True(t, l.Check("caller-1", OpGenerate).Allowed)
	}
	require.False(t, l.Check("caller-1", OpGenerate).Allowed)

	// One instant past expiry the caller gets a fresh window.
	*now = now.Add(rateLimitWindow + time.Millisecond)
	assert.True(t, l.Check("caller-1", OpGenerate).Allowed)
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1000, 0))

	for i := 0; i < maxGeneratePerWin; i++ {
		require.True(t, l.Check("caller-1", OpGenerate).Allowed)
	}
	require.False(t, l.Check("caller-1", OpGenerate).Allowed)

	// A different caller, and a different operation for the same caller,
	// both have their own budget.
	assert.True(t, l.Check("caller-2", OpGenerate).Allowed)
	assert.True(t, l.Check("caller-1", OpRegenerate).Allowed)
}

func TestLimiterRegenerateBudget(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1000, 0))

	for i := 0; i < maxRegeneratePerWin; i++ {
		require.True(t, l.Check("caller-1", OpRegenerate).Allowed)
	}
	assert.False(t, l.Check("caller-1", OpRegenerate).Allowed)
}

func TestLimiterSweepsExpiredEntries(t *testing.T) {
	l, now := newTestLimiter(time.Unix(1000, 0))

	for i := 0; i < sweepThreshold+1; i++ {
		l.Check(fmt.Sprintf("caller-%d", i), OpGenerate)
	}
	require.Greater(t, len(l.entries), sweepThreshold)

	// Once every window has lapsed, the next check drops the stale entries.
	*now = now.Add(rateLimitWindow + time.Second)
	l.Check("fresh-caller", OpGenerate)
	assert.LessOrEqual(t, len(l.entries), 2)
}

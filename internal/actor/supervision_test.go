package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRestartBudgetWithinLimit(t *testing.T) {
	t.Parallel()

	cfg := DefaultSupervision()
	cfg.MaxRestarts = 3
	cfg.Window = time.Minute

	b := newRestartBudget(cfg)
	now := time.Now()

	for i := 1; i <= 3; i++ {
		count, ok := b.recordAndCheck(now)
		require.True(t, ok, "restart %d should stay within budget", i)
		require.Equal(t, i, count)
	}

	count, ok := b.recordAndCheck(now)
	require.False(t, ok, "4th restart should exceed the budget of 3")
	require.Equal(t, 4, count)
}

func TestRestartBudgetWindowEviction(t *testing.T) {
	t.Parallel()

	cfg := DefaultSupervision()
	cfg.MaxRestarts = 1
	cfg.Window = time.Minute

	b := newRestartBudget(cfg)
	base := time.Now()

	_, ok := b.recordAndCheck(base)
	require.True(t, ok)

	// A second restart inside the window should exceed the budget of 1.
	_, ok = b.recordAndCheck(base.Add(time.Second))
	require.False(t, ok)

	// But a restart well outside the window evicts the earlier timestamp,
	// so the budget resets.
	_, ok = b.recordAndCheck(base.Add(2 * time.Minute))
	require.True(t, ok)
}

func TestRestartBudgetDelayGrowsAndCaps(t *testing.T) {
	t.Parallel()

	cfg := DefaultSupervision()
	cfg.BackoffMin = 10 * time.Millisecond
	cfg.BackoffMax = 40 * time.Millisecond
	cfg.BackoffFactor = 2
	cfg.Jitter = 0

	b := newRestartBudget(cfg)

	require.Equal(t, 10*time.Millisecond, b.delay(0))
	require.Equal(t, 20*time.Millisecond, b.delay(1))
	require.Equal(t, 40*time.Millisecond, b.delay(2))
	// Keeps being capped at BackoffMax beyond this point.
	require.Equal(t, 40*time.Millisecond, b.delay(10))
}

func TestDefaultSupervisionIsOneForOneRestart(t *testing.T) {
	t.Parallel()

	cfg := DefaultSupervision()
	require.Equal(t, Restart, cfg.Strategy)
	require.Equal(t, OneForOne, cfg.Scope)
	require.Positive(t, cfg.MaxRestarts)
}

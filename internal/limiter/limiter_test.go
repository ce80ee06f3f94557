package limiter

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAllowAdmitsExactlyOnePerWindow(t *testing.T) {
	lim := New(1, time.Hour)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.True(t, lim.Allow("10.0.0.1", t0).Allowed)

	// Every subsequent call inside the same hour is denied.
	for _, offset := range []time.Duration{time.Second, time.Minute, 30 * time.Minute, 59*time.Minute + 59*time.Second} {
		d := lim.Allow("10.0.0.1", t0.Add(offset))
		require.False(t, d.Allowed, "call at +%s should be denied", offset)
	}
}

func TestExpiryReleasesCapacity(t *testing.T) {
	lim := New(1, time.Hour)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.True(t, lim.Allow("10.0.0.1", t0).Allowed)
	require.False(t, lim.Allow("10.0.0.1", t0.Add(time.Hour-time.Second)).Allowed)
	require.True(t, lim.Allow("10.0.0.1", t0.Add(time.Hour+time.Second)).Allowed)
}

func TestIdentitiesAreIndependent(t *testing.T) {
	lim := New(1, time.Hour)
	t0 := time.Now()

	require.True(t, lim.Allow("10.0.0.1", t0).Allowed)
	require.False(t, lim.Allow("10.0.0.1", t0).Allowed)

	require.True(t, lim.Allow("10.0.0.2", t0).Allowed)
	require.False(t, lim.Allow("10.0.0.2", t0).Allowed)
}

func TestDeniedReportsRetryAfter(t *testing.T) {
	lim := New(1, time.Hour)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.True(t, lim.Allow("10.0.0.1", t0).Allowed)

	d := lim.Allow("10.0.0.1", t0.Add(20*time.Minute))
	require.False(t, d.Allowed)
	require.Equal(t, 40*time.Minute, d.RetryAfter)
}

func TestHigherLimitFillsBeforeDenying(t *testing.T) {
	lim := New(3, time.Hour)
	t0 := time.Now()

	for i := 0; i < 3; i++ {
		require.True(t, lim.Allow("10.0.0.1", t0.Add(time.Duration(i)*time.Minute)).Allowed)
	}
	require.False(t, lim.Allow("10.0.0.1", t0.Add(5*time.Minute)).Allowed)
}

func TestDenialDoesNotExtendWindow(t *testing.T) {
	lim := New(1, time.Hour)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.True(t, lim.Allow("10.0.0.1", t0).Allowed)

	// Hammering while denied must not push the expiry out.
	for i := 1; i <= 10; i++ {
		require.False(t, lim.Allow("10.0.0.1", t0.Add(time.Duration(i)*time.Minute)).Allowed)
	}
	require.True(t, lim.Allow("10.0.0.1", t0.Add(time.Hour+time.Second)).Allowed)
}

func TestConcurrentCallsAdmitExactlyOne(t *testing.T) {
	lim := New(1, time.Hour)
	now := time.Now()

	const goroutines = 64
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)

	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if lim.Allow("10.0.0.1", now).Allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, 1, admitted)
}

func TestSweepDropsFullyExpiredIdentities(t *testing.T) {
	lim := New(1, time.Hour)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	lim.Allow("10.0.0.1", t0)
	lim.Allow("10.0.0.2", t0.Add(30*time.Minute))
	require.Equal(t, 2, lim.Identities())

	// Only the first identity has fully aged out.
	removed := lim.Sweep(t0.Add(90 * time.Minute))
	require.Equal(t, 1, removed)
	require.Equal(t, 1, lim.Identities())

	// The swept identity starts fresh.
	require.True(t, lim.Allow("10.0.0.1", t0.Add(90*time.Minute)).Allowed)
	// The surviving one is still at capacity.
	require.False(t, lim.Allow("10.0.0.2", t0.Add(90*time.Minute)).Allowed)
}

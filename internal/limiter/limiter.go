// Package limiter implements a per-identity sliding-window admission
// controller. It guards a metered downstream call, so the gate is a hard
// N-per-window limit with no burst allowance or refill.
package limiter

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of an admission check.
//
// A denied decision is a normal control-flow result, not an error: callers
// must not treat it as one. RetryAfter is how long until the oldest window
// entry ages out; zero when admitted.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// SlidingWindow tracks recent admission timestamps per identity.
//
// Identities are opaque keys, typically peer addresses. Entries older than
// the window are compacted lazily on each access; a window at capacity stays
// full until its oldest entry expires. Safe for concurrent use; the mutex
// covers only the check-and-record step, never any downstream call.
type SlidingWindow struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string][]time.Time
}

// New returns a limiter admitting at most limit requests per identity within
// the sliding window.
func New(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:   limit,
		window:  window,
		windows: make(map[string][]time.Time),
	}
}

// Allow decides whether a request from identity at instant now is admitted,
// and records it if so. The compact-check-append sequence is atomic per call;
// two concurrent calls for the same identity can never both be admitted into
// the last remaining slot.
func (s *SlidingWindow) Allow(identity string, now time.Time) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Compact: keep only timestamps still inside the window. Insertion order
	// is preserved, so the head is always the oldest entry.
	kept := s.windows[identity][:0]
	for _, ts := range s.windows[identity] {
		if now.Sub(ts) < s.window {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= s.limit {
		s.windows[identity] = kept
		return Decision{
			Allowed:    false,
			RetryAfter: s.window - now.Sub(kept[0]),
		}
	}

	s.windows[identity] = append(kept, now)
	return Decision{Allowed: true}
}

// Identities returns the number of tracked identities. Intended for health
// reporting and tests.
func (s *SlidingWindow) Identities() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Sweep drops identities whose windows are fully expired at instant now and
// returns how many were removed. Admission semantics are unaffected: lazy
// compaction would have discarded the same entries on next access.
func (s *SlidingWindow) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for identity, window := range s.windows {
		live := false
		for _, ts := range window {
			if now.Sub(ts) < s.window {
				live = true
				break
			}
		}
		if !live {
			delete(s.windows, identity)
			removed++
		}
	}
	return removed
}

// Run sweeps stale identities every interval until ctx is cancelled. It
// blocks, so callers run it in its own goroutine. A non-positive interval
// disables the janitor and returns immediately.
func (s *SlidingWindow) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

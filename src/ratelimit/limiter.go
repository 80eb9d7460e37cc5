// Package ratelimit implements a per-key sliding window send limiter.
package ratelimit

import "time"

// Limiter accepts at most burst sends per key within any window.
// It is not safe for concurrent use; the room engine owns it.
type Limiter struct {
	burst   int
	window  time.Duration
	windows map[string][]time.Time
}

// New creates a limiter.
func New(burst int, window time.Duration) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &Limiter{
		burst:   burst,
		window:  window,
		windows: make(map[string][]time.Time),
	}
}

// TryConsume prunes timestamps older than now-window and records now if
// fewer than burst remain. A rejected attempt is not recorded.
func (l *Limiter) TryConsume(key string, now time.Time) bool {
	ts := l.prune(key, now)
	if len(ts) >= l.burst {
		l.windows[key] = ts
		return false
	}
	l.windows[key] = append(ts, now)
	return true
}

// RetryAfter returns how long until key may send again, or zero.
func (l *Limiter) RetryAfter(key string, now time.Time) time.Duration {
	ts := l.prune(key, now)
	l.windows[key] = ts
	if len(ts) < l.burst {
		return 0
	}
	return ts[0].Add(l.window).Sub(now)
}

func (l *Limiter) prune(key string, now time.Time) []time.Time {
	ts := l.windows[key]
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}

// Forget discards the window for key.
func (l *Limiter) Forget(key string) {
	delete(l.windows, key)
}

// Prune drops windows with no timestamps inside the window at now and
// returns how many were removed.
func (l *Limiter) Prune(now time.Time) int {
	removed := 0
	for key := range l.windows {
		if ts := l.prune(key, now); len(ts) == 0 {
			delete(l.windows, key)
			removed++
		} else {
			l.windows[key] = ts
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int { return len(l.windows) }

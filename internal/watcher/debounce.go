package watcher

import "time"

// DefaultWindow is how long a dispatched path stays suppressed.
const DefaultWindow = 2000 * time.Millisecond

// Clock returns the current time.
type Clock func() time.Time

// DebounceCache maps a path to the instant until which further events for it
// are suppressed. Expired entries are swept at most once per window, so the
// map only holds paths touched within roughly the last two windows.
//
// A DebounceCache is owned by one event loop and is not safe for concurrent
// use.
type DebounceCache struct {
	window    time.Duration
	now       Clock
	until     map[string]time.Time
	lastSweep time.Time
}

// NewDebounceCache creates a cache. A nil clock means time.Now and a
// non-positive window means DefaultWindow.
func NewDebounceCache(window time.Duration, now Clock) *DebounceCache {
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}

	return &DebounceCache{
		window:    window,
		now:       now,
		until:     make(map[string]time.Time),
		lastSweep: now(),
	}
}

// Allow reports whether an event for path may be dispatched. When it may,
// path is suppressed for the next window.
func (c *DebounceCache) Allow(path string) bool {
	now := c.now()
	c.sweep(now)

	if until, ok := c.until[path]; ok && now.Before(until) {
		return false
	}
	c.until[path] = now.Add(c.window)

	return true
}

// Len returns the number of tracked paths.
func (c *DebounceCache) Len() int {
	return len(c.until)
}

func (c *DebounceCache) sweep(now time.Time) {
	if now.Sub(c.lastSweep) < c.window {
		return
	}
	for path, until := range c.until {
		if !now.Before(until) {
			delete(c.until, path)
		}
	}
	c.lastSweep = now
}

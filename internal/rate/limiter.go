// Package rate counts attempts per key in fixed time windows.
package rate

import (
	"sync"
	"time"
)

// WindowLimiter allows at most limit attempts per key within each window.
type WindowLimiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	items       map[string]*windowEntry
	lastCleanup time.Time
	now         func() time.Time
}

type windowEntry struct {
	start time.Time
	count int
}

func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		limit:  limit,
		window: window,
		items:  make(map[string]*windowEntry),
		now:    time.Now,
	}
}

// Allow records an attempt for key. When the attempt is rejected it also
// returns how long the caller has to wait for the window to reset.
func (l *WindowLimiter) Allow(key string) (bool, time.Duration) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	entry, ok := l.items[key]
	if !ok || now.Sub(entry.start) >= l.window {
		l.items[key] = &windowEntry{start: now, count: 1}
		return true, 0
	}
	if entry.count >= l.limit {
		return false, entry.start.Add(l.window).Sub(now)
	}
	entry.count++
	return true, 0
}

// sweep drops expired windows at most once per window length.
func (l *WindowLimiter) sweep(now time.Time) {
	if l.window <= 0 || now.Sub(l.lastCleanup) < l.window {
		return
	}
	for key, entry := range l.items {
		if now.Sub(entry.start) >= l.window {
			delete(l.items, key)
		}
	}
	l.lastCleanup = now
}

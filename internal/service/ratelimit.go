package service

import (
	"sync"
	"time"
)

// Per-caller limits on the generation entry points. These windows sit behind
// the global per-IP middleware and survive only as long as the process; the
// limiter is an injected component so a durable backend could replace it
// without touching pipeline code.
const (
	OpGenerate   = "generate"
	OpRegenerate = "regenerate"

	rateLimitWindow     = 60 * time.Second
	maxGeneratePerWin   = 5
	maxRegeneratePerWin = 10
	sweepThreshold      = 1000
)

type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type windowEntry struct {
	count     int
	resetTime time.Time
}

// SlidingWindowLimiter counts requests per caller+operation in fixed 60s
// windows. Expired entries are swept opportunistically once the table grows
// past a threshold rather than by a background timer.
type SlidingWindowLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limits  map[string]int
	entries map[string]*windowEntry
	now     func() time.Time
}

func NewSlidingWindowLimiter() *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		window: rateLimitWindow,
		limits: map[string]int{
			OpGenerate:   maxGeneratePerWin,
			OpRegenerate: maxRegeneratePerWin,
		},
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

// Check records one request for callerID+operation and reports whether it is
// allowed. A denied decision carries the time remaining until the window resets.
func (l *SlidingWindowLimiter) Check(callerID, operation string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := operation + ":" + callerID

	if len(l.entries) > sweepThreshold {
		for k, e := range l.entries {
			if e.resetTime.Before(now) {
				delete(l.entries, k)
			}
		}
	}

	max, ok := l.limits[operation]
	if !ok {
		max = maxGeneratePerWin
	}

	entry, exists := l.entries[key]
	if !exists || entry.resetTime.Before(now) {
		l.entries[key] = &windowEntry{count: 1, resetTime: now.Add(l.window)}
		return Decision{Allowed: true}
	}

	if entry.count >= max {
		return Decision{Allowed: false, RetryAfter: entry.resetTime.Sub(now)}
	}

	entry.count++
	return Decision{Allowed: true}
}

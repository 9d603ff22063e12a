package ratelimit

import (
	"sync"
	"time"

	"github.com/deusflow/dedupnews/internal/logger"
)

// Budget caps how many LLM requests may be made per day. The window starts
// at construction and restarts once it has elapsed.
type Budget struct {
	mu        sync.Mutex
	name      string
	max       int
	used      int
	window    time.Duration
	resetTime time.Time
	now       func() time.Time
}

// NewBudget allows max requests per 24 hours. A max of 0 means unlimited.
func NewBudget(name string, max int) *Budget {
	return newBudget(name, max, 24*time.Hour, time.Now)
}

func newBudget(name string, max int, window time.Duration, now func() time.Time) *Budget {
	return &Budget{
		name:      name,
		max:       max,
		window:    window,
		resetTime: now().Add(window),
		now:       now,
	}
}

// Allow reserves one request and reports whether it fits the budget.
func (b *Budget) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()
	if b.max > 0 && b.used >= b.max {
		logger.Warn("Request budget exhausted", "service", b.name, "used", b.used, "max", b.max)
		return false
	}
	b.used++
	return true
}

// Remaining returns the requests left in the current window, or -1 when
// unlimited.
func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()
	if b.max == 0 {
		return -1
	}
	return b.max - b.used
}

// Used returns the requests made in the current window.
func (b *Budget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkReset()
	return b.used
}

// checkReset must be called with mu held.
func (b *Budget) checkReset() {
	if now := b.now(); !now.Before(b.resetTime) {
		if b.used > 0 {
			logger.Info("Request budget reset", "service", b.name, "used", b.used)
		}
		b.used = 0
		b.resetTime = now.Add(b.window)
	}
}

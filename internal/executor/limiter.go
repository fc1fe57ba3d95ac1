package executor

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter implements per-conversation rate limiting so one chatty session
// cannot starve the database of connections for everyone else.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter allowing queriesPerMinute sustained throughput
// per conversation with the given burst.
func NewLimiter(queriesPerMinute float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(queriesPerMinute / 60.0),
		defaultBurst: burst,
	}
}

// Wait blocks until the conversation is allowed another query or the context
// is done.
func (l *Limiter) Wait(ctx context.Context, conversationID string) error {
	return l.getLimiter(conversationID).Wait(ctx)
}

// Allow reports whether a query is allowed right now without waiting.
func (l *Limiter) Allow(conversationID string) bool {
	return l.getLimiter(conversationID).Allow()
}

func (l *Limiter) getLimiter(conversationID string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[conversationID]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[conversationID]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[conversationID] = limiter
	return limiter
}

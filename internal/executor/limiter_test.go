package executor

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(30, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(30, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(6000, 1) // 100 qps so the test never blocks long
	ctx := context.Background()

	if err := limiter.Wait(ctx, "default"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// A different conversation has its own budget.
	if err := limiter.Wait(ctx, "analysis-2"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_ConversationIsolation(t *testing.T) {
	// Sustained 1 query per minute, burst 1: a second query in the same
	// conversation is throttled, another conversation is not.
	limiter := NewLimiter(1, 1)

	if !limiter.Allow("default") {
		t.Fatal("expected first query to be allowed")
	}
	if limiter.Allow("default") {
		t.Error("expected second query in the same conversation to be throttled")
	}
	if !limiter.Allow("other") {
		t.Error("expected another conversation to have its own budget")
	}
}

func TestLimiter_WaitHonorsContext(t *testing.T) {
	limiter := NewLimiter(1, 1)
	_ = limiter.Allow("default") // Exhaust the burst

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := limiter.Wait(ctx, "default"); err == nil {
		t.Error("expected wait to fail when the context expires")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("wait did not return promptly after context expiry")
	}
}

package service

import (
	"testing"
	"time"
)

func TestCodeRateLimiter_AllowsUpToMax(t *testing.T) {
	limiter := NewCodeRateLimiter(time.Minute, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("user@example.com") {
			t.Fatalf("expected request %d allowed", i)
		}
	}
	if limiter.Allow("user@example.com") {
		t.Fatalf("expected fourth request rejected")
	}
}

func TestCodeRateLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewCodeRateLimiter(time.Minute, 1)

	if !limiter.Allow("a@example.com") {
		t.Fatalf("expected first key allowed")
	}
	if !limiter.Allow("b@example.com") {
		t.Fatalf("expected second key unaffected")
	}
	if limiter.Allow("a@example.com") {
		t.Fatalf("expected first key exhausted")
	}
}

func TestCodeRateLimiter_WindowExpires(t *testing.T) {
	limiter := NewCodeRateLimiter(10*time.Millisecond, 1)

	if !limiter.Allow("user@example.com") {
		t.Fatalf("expected first request allowed")
	}
	if limiter.Allow("user@example.com") {
		t.Fatalf("expected second request rejected")
	}
	time.Sleep(20 * time.Millisecond)
	if !limiter.Allow("user@example.com") {
		t.Fatalf("expected request allowed after window")
	}
}

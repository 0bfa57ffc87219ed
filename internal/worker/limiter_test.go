package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://kg.example.org/entities?q=CO2"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// Different host has its own bucket
	if err := limiter.Wait(ctx, "http://other.example.org/entities"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_InvalidURL(t *testing.T) {
	limiter := NewLimiter(10, 1)

	if err := limiter.Wait(context.Background(), "not a url"); err == nil {
		t.Error("expected error for URL without host")
	}
	if limiter.Allow("::bad") {
		t.Error("expected Allow to reject unparsable URL")
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)
	url := "http://kg.example.org"

	if !limiter.Allow(url) {
		t.Fatal("first request should be allowed")
	}
	if limiter.Allow(url) {
		t.Error("second immediate request should be limited")
	}
}

func TestLimiter_DisabledRate(t *testing.T) {
	limiter := NewLimiter(0, 1)
	url := "http://kg.example.org"

	for i := 0; i < 10; i++ {
		if !limiter.Allow(url) {
			t.Fatalf("request %d should be allowed with limiting disabled", i)
		}
	}
}

func TestLimiter_ContextCancelled(t *testing.T) {
	limiter := NewLimiter(0.1, 1)
	url := "http://kg.example.org"
	_ = limiter.Allow(url) // drain the burst

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, url); err == nil {
		t.Error("expected wait to fail when context expires first")
	}
}

func TestLimiter_SetHostDelay(t *testing.T) {
	limiter := NewLimiter(100, 5)
	limiter.SetHostDelay("kg.example.org", time.Hour)

	url := "http://kg.example.org/entities"
	if !limiter.Allow(url) {
		t.Fatal("first request should be allowed")
	}
	if limiter.Allow(url) {
		t.Error("crawl delay should limit the second request")
	}

	// Other hosts keep the default rate
	if !limiter.Allow("http://other.example.org") || !limiter.Allow("http://other.example.org") {
		t.Error("other hosts should keep default burst")
	}
}

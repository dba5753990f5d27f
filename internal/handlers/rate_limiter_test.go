package handlers

import (
	"net/http"
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("attempt %d blocked, want allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("attempt over the limit allowed")
	}
	// another ip is unaffected
	if !rl.Allow("5.6.7.8") {
		t.Fatal("unrelated ip blocked")
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	rl := NewRateLimiter(1, 50*time.Millisecond)

	if !rl.Allow("1.2.3.4") {
		t.Fatal("first attempt blocked")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("second attempt allowed within window")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rl.Allow("1.2.3.4") {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("limiter never reset after window")
}

func TestLoginRateLimited(t *testing.T) {
	h, router, _ := setupHTTP(t)
	h.RateLimiter = NewRateLimiter(2, time.Hour)

	body := `{"email":"alice@example.com","password":"correct-horse"}`
	doJSON(t, router, http.MethodPost, "/api/login", "", body)
	doJSON(t, router, http.MethodPost, "/api/login", "", body)

	rec := doJSON(t, router, http.MethodPost, "/api/login", "", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", rec.Code)
	}
}

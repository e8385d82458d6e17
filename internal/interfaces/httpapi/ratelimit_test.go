package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/armory-onboarding/internal/domain/user"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
)

func TestRateLimiter_KeysOnPrincipal(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2, logging.NewNop())
	rl.now = func() time.Time { return now }

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	call := func(userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/onboarding/step1", nil)
		req = req.WithContext(withPrincipal(context.Background(), user.Principal{UserID: userID}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := call("seller-1"); code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, code)
		}
	}
	if code := call("seller-1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}
	if code := call("buyer-1"); code != http.StatusNoContent {
		t.Fatalf("other principal should have its own bucket, got %d", code)
	}

	now = now.Add(time.Second)
	if code := call("seller-1"); code != http.StatusNoContent {
		t.Fatalf("expected refill after one second, got %d", code)
	}
}

func TestRateLimiter_SweepDropsIdleBuckets(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(5, 5, logging.NewNop())
	rl.now = func() time.Time { return now }

	rl.allow("user:a")
	now = now.Add(defaultLimiterIdle + time.Minute)
	rl.allow("user:b")

	if removed := rl.Sweep(); removed != 1 {
		t.Fatalf("expected one idle bucket removed, got %d", removed)
	}
}

func TestRateLimiter_DisabledPassesThrough(t *testing.T) {
	rl := NewRateLimiter(0, 0, nil)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})
	if rl != nil {
		t.Fatalf("expected nil limiter when disabled")
	}
	if rl.Limit(next) == nil {
		t.Fatalf("expected pass-through handler")
	}
}

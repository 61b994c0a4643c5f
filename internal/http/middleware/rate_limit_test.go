package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fixedWindowRepo mirrors the store's window semantics in memory: a row whose
// window began before now-window restarts at now, otherwise the counter
// increments. The clock is injectable so tests can cross window boundaries.
type fixedWindowRepo struct {
	now     time.Time
	starts  map[string]time.Time
	counts  map[string]int
	failErr error
}

func newFixedWindowRepo() *fixedWindowRepo {
	return &fixedWindowRepo{
		now:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		starts: make(map[string]time.Time),
		counts: make(map[string]int),
	}
}

func (f *fixedWindowRepo) CheckRateLimit(_ context.Context, key string, requests int, window time.Duration) (bool, error) {
	if f.failErr != nil {
		return true, f.failErr
	}
	start, exists := f.starts[key]
	if !exists || start.Before(f.now.Add(-window)) {
		f.starts[key] = f.now
		f.counts[key] = 1
	} else {
		f.counts[key]++
	}
	return f.counts[key] <= requests, nil
}

func (f *fixedWindowRepo) CleanupExpired(context.Context) (int64, error) { return 0, nil }

func doRequest(limiter *RateLimiter, ip string) *httptest.ResponseRecorder {
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodPost, "/auth/register", nil)
	req.RemoteAddr = ip + ":54321"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	repo := newFixedWindowRepo()
	limiter := NewRateLimiter(repo, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if rec := doRequest(limiter, "10.0.0.1"); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i+1, rec.Code)
		}
		repo.now = repo.now.Add(time.Second)
	}

	rec := doRequest(limiter, "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("request over the limit: expected 429, got %d", rec.Code)
	}
}

func TestRateLimiterWindowExpiryResetsCounter(t *testing.T) {
	repo := newFixedWindowRepo()
	limiter := NewRateLimiter(repo, 2, time.Minute)

	doRequest(limiter, "10.0.0.1")
	doRequest(limiter, "10.0.0.1")
	if rec := doRequest(limiter, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 inside the window, got %d", rec.Code)
	}

	repo.now = repo.now.Add(time.Minute + time.Second)
	if rec := doRequest(limiter, "10.0.0.1"); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 after the window expired, got %d", rec.Code)
	}
}

func TestRateLimiterKeysByClientIP(t *testing.T) {
	repo := newFixedWindowRepo()
	limiter := NewRateLimiter(repo, 1, time.Minute)

	doRequest(limiter, "10.0.0.1")
	if rec := doRequest(limiter, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for the exhausted IP, got %d", rec.Code)
	}
	if rec := doRequest(limiter, "10.0.0.2"); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for a different IP, got %d", rec.Code)
	}
}

func TestRateLimiterFailsOpenOnStoreError(t *testing.T) {
	repo := newFixedWindowRepo()
	repo.failErr = errors.New("store down")
	limiter := NewRateLimiter(repo, 1, time.Minute)

	for i := 0; i < 5; i++ {
		if rec := doRequest(limiter, "10.0.0.1"); rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204 when the store errors, got %d", rec.Code)
		}
	}
}

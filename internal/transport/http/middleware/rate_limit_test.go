package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type fakeRateLimitStore struct {
	attempts map[string][]time.Time
	failing  bool
}

func newFakeRateLimitStore() *fakeRateLimitStore {
	return &fakeRateLimitStore{attempts: make(map[string][]time.Time)}
}

func (s *fakeRateLimitStore) Take(_ context.Context, identifier string, window time.Duration, limit int, at time.Time) (bool, int, time.Time, error) {
	if s.failing {
		return false, 0, time.Time{}, context.DeadlineExceeded
	}

	cutoff := at.Add(-window)
	var kept []time.Time
	for _, attempt := range s.attempts[identifier] {
		if attempt.After(cutoff) {
			kept = append(kept, attempt)
		}
	}

	if len(kept) >= limit {
		s.attempts[identifier] = kept
		return false, len(kept), kept[0], nil
	}

	kept = append(kept, at)
	s.attempts[identifier] = kept
	return true, len(kept), kept[0], nil
}

func newRateLimitedEngine(store RateLimitStore, limit int, window time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(store, nil)
	engine := gin.New()
	engine.POST("/login", limiter.RateLimit(RateLimitRule{
		Name:       "login",
		Limit:      limit,
		Window:     window,
		Identifier: ClientIPIdentifier(),
	}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func doRequest(engine *gin.Engine) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "203.0.113.7:51000"
	engine.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	engine := newRateLimitedEngine(newFakeRateLimitStore(), 2, time.Minute)

	for i := 0; i < 2; i++ {
		if rec := doRequest(engine); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: got status %d, want 200", i+1, rec.Code)
		}
	}

	rec := doRequest(engine)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("got status %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected a Retry-After header")
	}
}

func TestRateLimitSetsHeaders(t *testing.T) {
	engine := newRateLimitedEngine(newFakeRateLimitStore(), 5, time.Minute)

	rec := doRequest(engine)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "5" {
		t.Fatalf("got limit header %q, want 5", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "4" {
		t.Fatalf("got remaining header %q, want 4", got)
	}
}

func TestRateLimitDegradesOpenOnStoreFailure(t *testing.T) {
	store := newFakeRateLimitStore()
	store.failing = true
	engine := newRateLimitedEngine(store, 1, time.Minute)

	for i := 0; i < 3; i++ {
		if rec := doRequest(engine); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: got status %d, want 200 when store fails", i+1, rec.Code)
		}
	}
}

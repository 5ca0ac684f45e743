package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestRepository(t *testing.T) (*RateLimitRepository, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRateLimitRepository(client, SlidingWindowConfig{
		KeyPrefix: "chitchat:rate-limit",
		TTL:       2 * time.Minute,
	}), server
}

func TestTakeAdmitsUnderLimit(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	first := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		at := first.Add(time.Duration(i) * time.Second)
		allowed, count, oldest, err := repo.Take(ctx, "login:1.2.3.4", time.Minute, 5, at)
		if err != nil {
			t.Fatalf("take %d: %v", i+1, err)
		}
		if !allowed {
			t.Fatalf("take %d: expected the attempt to be admitted", i+1)
		}
		if count != i+1 {
			t.Fatalf("take %d: got count %d, want %d", i+1, count, i+1)
		}
		if !oldest.Equal(first) {
			t.Fatalf("take %d: got oldest %v, want %v", i+1, oldest, first)
		}
	}
}

func TestTakeRejectsAtLimitWithoutRecording(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		if allowed, _, _, err := repo.Take(ctx, "login:1.2.3.4", time.Minute, 2, now.Add(time.Duration(i)*time.Second)); err != nil || !allowed {
			t.Fatalf("seed take %d: allowed=%v err=%v", i+1, allowed, err)
		}
	}

	allowed, count, oldest, err := repo.Take(ctx, "login:1.2.3.4", time.Minute, 2, now.Add(2*time.Second))
	if err != nil {
		t.Fatalf("take over limit: %v", err)
	}
	if allowed {
		t.Fatal("expected the attempt over the limit to be rejected")
	}
	if count != 2 {
		t.Fatalf("got count %d, want 2: rejected attempts must not be recorded", count)
	}
	if !oldest.Equal(now) {
		t.Fatalf("got oldest %v, want %v", oldest, now)
	}

	// Identifiers are independent.
	if allowed, _, _, err := repo.Take(ctx, "login:other", time.Minute, 2, now); err != nil || !allowed {
		t.Fatalf("other identifier: allowed=%v err=%v", allowed, err)
	}
}

func TestTakeTrimsAttemptsOutsideWindow(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if allowed, _, _, err := repo.Take(ctx, "login:1.2.3.4", time.Minute, 1, now); err != nil || !allowed {
		t.Fatalf("first take: allowed=%v err=%v", allowed, err)
	}
	if allowed, _, _, err := repo.Take(ctx, "login:1.2.3.4", time.Minute, 1, now.Add(time.Second)); err != nil || allowed {
		t.Fatalf("inside window: allowed=%v err=%v, want rejection", allowed, err)
	}

	later := now.Add(2 * time.Minute)
	allowed, count, oldest, err := repo.Take(ctx, "login:1.2.3.4", time.Minute, 1, later)
	if err != nil {
		t.Fatalf("take after window: %v", err)
	}
	if !allowed {
		t.Fatal("expected the window to clear once the old attempt aged out")
	}
	if count != 1 {
		t.Fatalf("got count %d, want 1", count)
	}
	if !oldest.Equal(later) {
		t.Fatalf("got oldest %v, want the fresh attempt %v", oldest, later)
	}
}

func TestTakeAppliesKeyTTL(t *testing.T) {
	repo, server := newTestRepository(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if allowed, _, _, err := repo.Take(ctx, "login:1.2.3.4", time.Minute, 5, now); err != nil || !allowed {
		t.Fatalf("take: allowed=%v err=%v", allowed, err)
	}

	if ttl := server.TTL("chitchat:rate-limit:login:1.2.3.4"); ttl != 2*time.Minute {
		t.Fatalf("got key TTL %v, want 2m", ttl)
	}
}

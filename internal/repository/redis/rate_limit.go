package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// SlidingWindowConfig defines configuration for the sliding window limiter.
type SlidingWindowConfig struct {
	KeyPrefix string
	TTL       time.Duration
}

// RateLimitRepository keeps a sorted set of attempt timestamps per
// identifier. One Take call trims the window, inspects it, and records the
// attempt, so the middleware needs two Redis round trips instead of four.
type RateLimitRepository struct {
	client *redis.Client
	cfg    SlidingWindowConfig
}

// NewRateLimitRepository constructs a repository using the provided Redis
// client and config.
func NewRateLimitRepository(client *redis.Client, cfg SlidingWindowConfig) *RateLimitRepository {
	return &RateLimitRepository{client: client, cfg: cfg}
}

// Take evaluates one attempt against the limit at the given instant.
// Admitted attempts are recorded; rejected attempts do not count against
// the caller. Returns whether the attempt was admitted, the number of
// attempts inside the window after evaluation, and the oldest recorded
// attempt (the zero time when the window is empty).
func (r *RateLimitRepository) Take(ctx context.Context, identifier string, window time.Duration, limit int, at time.Time) (bool, int, time.Time, error) {
	if window <= 0 {
		return false, 0, time.Time{}, errors.New("window must be positive")
	}

	key := r.key(identifier)
	threshold := strconv.FormatInt(at.Add(-window).UnixNano(), 10)

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", threshold)
	countCmd := pipe.ZCard(ctx, key)
	headCmd := pipe.ZRange(ctx, key, 0, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, fmt.Errorf("redis window eval: %w", err)
	}

	count := int(countCmd.Val())
	oldest, err := parseAttempt(headCmd.Val())
	if err != nil {
		return false, 0, time.Time{}, err
	}

	if limit > 0 && count >= limit {
		return false, count, oldest, nil
	}

	record := r.client.TxPipeline()
	record.ZAdd(ctx, key, redis.Z{Score: float64(at.UnixNano()), Member: at.UnixNano()})
	if r.cfg.TTL > 0 {
		record.Expire(ctx, key, r.cfg.TTL)
	}
	if _, err := record.Exec(ctx); err != nil {
		return false, count, oldest, fmt.Errorf("redis record attempt: %w", err)
	}

	count++
	if oldest.IsZero() {
		oldest = at
	}
	return true, count, oldest, nil
}

// parseAttempt decodes the head of the sorted set. Members carry the exact
// nanosecond timestamp; scores are float64 and lose precision.
func parseAttempt(members []string) (time.Time, error) {
	if len(members) == 0 {
		return time.Time{}, nil
	}
	nanos, err := strconv.ParseInt(members[0], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse attempt timestamp: %w", err)
	}
	return time.Unix(0, nanos), nil
}

func (r *RateLimitRepository) key(identifier string) string {
	if r.cfg.KeyPrefix == "" {
		return identifier
	}
	return r.cfg.KeyPrefix + ":" + identifier
}

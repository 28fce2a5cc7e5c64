package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/velocart/storefront-backend/internal/config"
)

// Limiter reports whether another attempt is allowed for a key, and if not,
// how many seconds the caller should wait.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter int, err error)
}

func NewRedisClient(cfg *config.Config) (*redis.Client, error) {

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisConnect.Addr,
		Username: cfg.RedisConnect.Username,
		Password: cfg.RedisConnect.Password,
		DB:       cfg.RedisConnect.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("✅ Successfully connected to Redis")

	return client, nil
}

type redisLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
}

func NewRedisLimiter(client *redis.Client, maxAttempts int64, window time.Duration) Limiter {
	return &redisLimiter{client: client, maxAttempts: maxAttempts, window: window}
}

// Allow records the attempt in a per-key sorted set scored by timestamp and
// counts the attempts still inside the sliding window.
func (r *redisLimiter) Allow(ctx context.Context, key string) (bool, int, error) {

	now := time.Now().Unix()
	windowStart := now - int64(r.window.Seconds())

	redisKey := fmt.Sprintf("order_attempts:%s", key)

	pipe := r.client.Pipeline()

	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now), Member: now})
	count := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, r.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("redis pipeline error for rate limit check: %w", err)
	}

	attempts := count.Val()
	if attempts < r.maxAttempts {
		return true, 0, nil
	}

	oldest, err := r.client.ZRangeArgsWithScores(ctx, redis.ZRangeArgs{
		Key: redisKey, Start: 0, Stop: 0,
	}).Result()
	if err != nil || len(oldest) == 0 {
		return false, int(r.window.Seconds()), nil
	}

	retryAfter := max((int64(oldest[0].Score)+int64(r.window.Seconds()))-now, 0)

	return false, int(retryAfter), nil
}

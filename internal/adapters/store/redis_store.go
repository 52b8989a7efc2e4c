package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mikey/content-risk-filter/internal/core"
)

const (
	redisKeyPrefix = "verdict:"
	redisScanCount = 1000
	redisScanPages = 100
)

// RedisStore is a Redis implementation of the VerdictStore interface.
// Retention is enforced by Redis itself through per-key TTLs.
type RedisStore struct {
	client    *redis.Client
	logger    *zap.Logger
	retention time.Duration
}

// NewRedisStore creates a new Redis verdict store. The URL carries all
// connection options. A retention of zero keeps verdicts forever.
func NewRedisStore(redisURL string, logger *zap.Logger, retention time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	// check redis connection
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client:    client,
		logger:    logger,
		retention: retention,
	}, nil
}

// Save stores the encoded verdict under its fingerprint key.
func (s *RedisStore) Save(ctx context.Context, verdict *core.Verdict) error {
	payload, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("failed to encode verdict: %w", err)
	}

	key := redisKeyPrefix + string(verdict.Fingerprint)
	if err := s.client.Set(ctx, key, payload, s.retention).Err(); err != nil {
		return fmt.Errorf("failed to store verdict: %w", err)
	}
	return nil
}

// Load retrieves the stored verdict for a fingerprint.
func (s *RedisStore) Load(ctx context.Context, fp core.Fingerprint) (*core.Verdict, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+string(fp)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch verdict: %w", err)
	}

	var verdict core.Verdict
	if err := json.Unmarshal(payload, &verdict); err != nil {
		return nil, fmt.Errorf("failed to decode verdict: %w", err)
	}
	return &verdict, nil
}

// Stats counts verdict keys with a bounded scan. Byte size is not
// reported for redis.
func (s *RedisStore) Stats(ctx context.Context) (core.StoreStats, error) {
	stats := core.StoreStats{Kind: "redis"}

	var cursor uint64
	for page := 0; page < redisScanPages; page++ {
		keys, next, err := s.client.Scan(ctx, cursor, redisKeyPrefix+"*", redisScanCount).Result()
		if err != nil {
			return stats, fmt.Errorf("failed to scan verdict keys: %w", err)
		}
		stats.Records += int64(len(keys))
		cursor = next
		if cursor == 0 {
			return stats, nil
		}
	}

	s.logger.Debug("Verdict key scan truncated", zap.Int64("counted", stats.Records))
	return stats, nil
}

// Close releases the client connection pool.
func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}

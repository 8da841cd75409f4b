package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/talentbase-backend/config"
	"github.com/ikkim/talentbase-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"addr": cfg.Addr(),
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"addr": cfg.Addr(),
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// AttemptLimiter allows at most max attempts per key in a fixed window.
type AttemptLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
	prefix string
}

func NewAttemptLimiter(c *redis.Client, maxAttempts int, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{
		client: c,
		max:    int64(maxAttempts),
		window: window,
		prefix: "attempts:",
	}
}

// Allow counts one attempt for key. The counter and its window are set in one MULTI/EXEC,
// and a counter left without a TTL gets one on the next attempt.
func (l *AttemptLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + key

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.window)
		return nil
	})
	if err != nil {
		logger.Error("Failed to count attempt", err, nil)
		return false, err
	}
	return incr.Val() <= l.max, nil
}

// RevocationList remembers revoked session token ids until they would have expired anyway.
type RevocationList struct {
	client *redis.Client
}

func NewRevocationList(c *redis.Client) *RevocationList {
	return &RevocationList{client: c}
}

func (r *RevocationList) Revoke(ctx context.Context, tokenID string, expiry time.Duration) error {
	logger.Debug("Adding token to blacklist", map[string]interface{}{
		"expiry": expiry.String(),
	})

	key := fmt.Sprintf("blacklist:%s", tokenID)
	if err := r.client.Set(ctx, key, "revoked", expiry).Err(); err != nil {
		logger.Error("Failed to blacklist token", err, nil)
		return err
	}
	return nil
}

func (r *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	key := fmt.Sprintf("blacklist:%s", tokenID)
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err, nil)
		return false, err
	}
	return val == "revoked", nil
}

package queue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	appErr "gavel/pkg/errors"
)

// RedisConfig holds the Redis connection settings for the job queue.
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	DialTimeout     time.Duration
	PoolSize        int
}

// DefaultRedisConfig returns a RedisConfig with sensible defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		PoolSize:        4,
	}
}

// RedisQueue implements JobQueue on a Redis list.
// The API pushes with LPUSH; the worker blocks on BRPOP, so delivery is
// first-in first-out across any number of workers.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue connects to Redis and verifies the connection.
func NewRedisQueue(cfg RedisConfig, key string) (*RedisQueue, error) {
	if cfg.Addr == "" {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("redis addr is required")
	}
	if key == "" {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("queue key is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: cfg.MinRetryBackoff,
		MaxRetryBackoff: cfg.MaxRetryBackoff,
		DialTimeout:     cfg.DialTimeout,
		PoolSize:        cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, appErr.Wrapf(err, appErr.QueueError, "connect to redis failed")
	}
	return &RedisQueue{client: client, key: key}, nil
}

func (q *RedisQueue) Pop(ctx context.Context, wait time.Duration) (string, error) {
	values, err := q.client.BRPop(ctx, wait, q.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", appErr.Wrapf(err, appErr.QueueError, "queue pop failed")
	}
	// BRPOP returns [key, value].
	if len(values) < 2 {
		return "", nil
	}
	return values[1], nil
}

func (q *RedisQueue) Push(ctx context.Context, payload string) error {
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return appErr.Wrapf(err, appErr.QueueError, "queue push failed")
	}
	return nil
}

func (q *RedisQueue) Ping(ctx context.Context) error {
	if err := q.client.Ping(ctx).Err(); err != nil {
		return appErr.Wrapf(err, appErr.QueueError, "ping redis failed")
	}
	return nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

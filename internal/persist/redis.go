package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marginalia/internal/store"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "marginalia:snapshot"

// Redis persists the database as a single JSON blob under one key in a local
// Redis instance. No TTL: the snapshot lives until the next save replaces it.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis connects to redisURL and verifies the connection.
func NewRedis(redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Redis{client: client, key: defaultRedisKey}, nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client, key: defaultRedisKey}
}

func (r *Redis) LoadSnapshot(ctx context.Context) (*store.Database, error) {
	data, err := r.client.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return nil, store.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var db store.Database
	if err := json.Unmarshal([]byte(data), &db); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &db, nil
}

func (r *Redis) SaveSnapshot(ctx context.Context, db *store.Database) error {
	payload, err := json.Marshal(db)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

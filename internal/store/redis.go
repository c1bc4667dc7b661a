package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"

	"media-gallery/internal/logging"
	"media-gallery/internal/metrics"
)

// Redis keeps each namespace in one hash named "<prefix>:<namespace>", so
// several gallery instances can share library state.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to addr and verifies the connection with PING.
func NewRedis(ctx context.Context, addr, prefix string) (*Redis, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // no password set
		DB:       0,  // use default DB
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logging.Error("failed to close redis client after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("connection fail: redis %s: %w", addr, err)
	}

	logging.Info("Library store connected to redis at %s (prefix %q)", addr, prefix)
	return &Redis{client: client, prefix: prefix}, nil
}

// hashKey names the redis hash holding namespace.
func (r *Redis) hashKey(namespace string) string {
	if r.prefix == "" {
		return namespace
	}
	return r.prefix + ":" + namespace
}

func (r *Redis) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	start := time.Now()
	value, err := r.client.HGet(ctx, r.hashKey(namespace), key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ObserveStoreOperation(BackendRedis, "get", start, nil)
		return nil, ErrNotFound
	}
	metrics.ObserveStoreOperation(BackendRedis, "get", start, err)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, namespace, key string, value []byte) error {
	start := time.Now()
	err := r.client.HSet(ctx, r.hashKey(namespace), key, value).Err()
	metrics.ObserveStoreOperation(BackendRedis, "set", start, err)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, namespace, key string) error {
	start := time.Now()
	err := r.client.HDel(ctx, r.hashKey(namespace), key).Err()
	metrics.ObserveStoreOperation(BackendRedis, "delete", start, err)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (r *Redis) Keys(ctx context.Context, namespace string) ([]string, error) {
	start := time.Now()
	keys, err := r.client.HKeys(ctx, r.hashKey(namespace)).Result()
	metrics.ObserveStoreOperation(BackendRedis, "keys", start, err)
	if err != nil {
		return nil, fmt.Errorf("keys %s: %w", namespace, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the client connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultNamespace = "l2showdown"

// RedisTier stores memo entries in Redis with a per-entry TTL.
type RedisTier struct {
	rdb       *redis.Client
	namespace string
}

// NewRedisTier connects to Redis and verifies the connection.
func NewRedisTier(redisURL, password string) (*RedisTier, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return NewRedisTierFromClient(rdb, ""), nil
}

// NewRedisTierFromClient wraps an existing client. An empty namespace uses
// the default prefix.
func NewRedisTierFromClient(rdb *redis.Client, namespace string) *RedisTier {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &RedisTier{rdb: rdb, namespace: namespace}
}

// Get returns the stored bytes. Any Redis error counts as a miss.
func (r *RedisTier) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if err != nil || len(b) == 0 {
		return nil, false
	}
	return b, true
}

// Set writes value with ttl. Failures are ignored; the local memo still holds
// the value.
func (r *RedisTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	_ = r.rdb.Set(ctx, r.key(key), value, ttl).Err()
}

// Ping checks the connection for readiness probes.
func (r *RedisTier) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close shuts down the Redis connection.
func (r *RedisTier) Close() error {
	return r.rdb.Close()
}

func (r *RedisTier) key(k string) string {
	return r.namespace + ":" + safe(k)
}

// safe replaces characters that make Redis keys awkward to scan.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "\n", "_")
	return s
}

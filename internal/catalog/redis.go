package catalog

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisKey is the hash holding stream name to type tag entries.
const DefaultRedisKey = "synclog:types"

// Redis reads the catalog from a Redis hash, one field per stream.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis returns a catalog backed by the hash at key.
func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key}
}

// Snapshot fetches the whole hash.
func (r *Redis) Snapshot(ctx context.Context) (map[string]string, error) {
	m, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("reading type catalog %s: %w", r.key, err)
	}
	return m, nil
}

// Register stores the type tag for a stream.
func (r *Redis) Register(ctx context.Context, stream, typ string) error {
	if err := r.client.HSet(ctx, r.key, stream, typ).Err(); err != nil {
		return fmt.Errorf("registering type for %s: %w", stream, err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

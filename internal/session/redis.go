package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airbooking-client/config"
	"github.com/redis/go-redis/v9"
)

// RedisBackend stores entries as plain string keys under
// "session:<namespace>:<key>".
type RedisBackend struct {
	client    *redis.Client
	namespace string
}

func NewRedisBackend(cfg config.RedisConfig, namespace string) *RedisBackend {
	return NewRedisBackendFromClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		namespace,
	)
}

func NewRedisBackendFromClient(client *redis.Client, namespace string) *RedisBackend {
	return &RedisBackend{client: client, namespace: namespace}
}

func (r *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, entries map[string]string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range entries {
			pipe.Set(ctx, r.key(k), v, 0)
		}
		return nil
	})
	return err
}

func (r *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, r.key(k))
	}
	return r.client.Del(ctx, full...).Err()
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}

func (r *RedisBackend) key(k string) string {
	return fmt.Sprintf("session:%s:%s", r.namespace, k)
}

var _ Backend = (*RedisBackend)(nil)

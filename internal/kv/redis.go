package kv

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"studybridge/internal/popup"
	"studybridge/pkg/types"

	"github.com/redis/go-redis/v9"
)

// Redis implements the popup key/value port on a Redis instance. Values are
// written without expiry; the frequency-cap windows are interpreted by the
// reader, not by TTLs.
type Redis struct {
	client *redis.Client
}

func NewRedis(config *types.Config) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(config.RedisHost, strconv.Itoa(config.RedisPort)),
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", popup.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

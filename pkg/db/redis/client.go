package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PFEPLTechHub/document-bot/internal/config"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// ErrMissing is returned by GetValue when the key does not exist.
var ErrMissing = errors.New("key not found")

type Store struct {
	client *redis.Client
}

func InitRedis(ctx context.Context, cfg config.Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info("Connected to Redis successfully")
	return &Store{client: client}, nil
}

func (r *Store) SetValue(ctx context.Context, key string, value string, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (r *Store) GetValue(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMissing
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return val, nil
}

// Take reads and deletes the key in one round trip.
func (r *Store) Take(ctx context.Context, key string) (string, error) {
	val, err := r.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMissing
	}
	if err != nil {
		return "", fmt.Errorf("getdel %s: %w", key, err)
	}
	return val, nil
}

func (r *Store) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *Store) Close() error {
	return r.client.Close()
}

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"room-reservation-api/internal/apperr"
)

// RedisTokenStore backs the TokenStore port with Redis: keys carry
// their own TTL, so pruning is the server's job, not ours.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(addr, password string, db int) *RedisTokenStore {
	return &RedisTokenStore{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (s *RedisTokenStore) Put(ctx context.Context, key, value string, ttlSeconds int) error {
	if err := s.client.Set(ctx, key, value, time.Duration(ttlSeconds)*time.Second).Err(); err != nil {
		return apperr.Wrap(apperr.StorageUnavailable, "put token", err)
	}
	return nil
}

func (s *RedisTokenStore) TakeOnce(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperr.Wrap(apperr.StorageUnavailable, "take token", err)
	}
	return val, true, nil
}

func (s *RedisTokenStore) SetIfAbsent(ctx context.Context, key string, ttlSeconds int) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, "1", time.Duration(ttlSeconds)*time.Second).Result()
	if err != nil {
		return false, apperr.Wrap(apperr.StorageUnavailable, "set-if-absent token", err)
	}
	return ok, nil
}

func (s *RedisTokenStore) Close() error {
	return s.client.Close()
}

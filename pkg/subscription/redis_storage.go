package subscription

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "snapdiary:subscription:status"

// RedisStorage persists the status record as a JSON value under a single key.
type RedisStorage struct {
	client redis.UniversalClient
	key    string
}

// NewRedisStorage returns a Storage backed by the given Redis client.
// An empty key selects the default.
func NewRedisStorage(client redis.UniversalClient, key string) *RedisStorage {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisStorage{client: client, key: key}
}

func (s *RedisStorage) Load(ctx context.Context) (Status, error) {
	if s.client == nil {
		return Status{}, ErrNotInitialized
	}

	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Status{}, ErrStatusNotFound
		}
		return Status{}, errors.Join(ErrStorageUnavailable, err)
	}

	var status Status
	if err := json.Unmarshal(raw, &status); err != nil {
		return Status{}, errors.Join(ErrStorageUnavailable, err)
	}
	return status, nil
}

func (s *RedisStorage) Save(ctx context.Context, status Status) error {
	if s.client == nil {
		return ErrNotInitialized
	}

	raw, err := json.Marshal(status)
	if err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	// SET is an atomic replace; no TTL, the record lives until cleared.
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context) error {
	if s.client == nil {
		return ErrNotInitialized
	}

	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBlobStore stores the snapshot blob under a single Redis key.
type RedisBlobStore struct {
	client *redis.Client
	key    string
}

// NewRedisBlobStore wraps an existing Redis client.
func NewRedisBlobStore(client *redis.Client, key string) *RedisBlobStore {
	if key == "" {
		key = "horario.json"
	}
	return &RedisBlobStore{client: client, key: key}
}

func (s *RedisBlobStore) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save snapshot to redis: %w", err)
	}
	return nil
}

func (s *RedisBlobStore) Load(ctx context.Context) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load snapshot from redis: %w", err)
	}
	return data, true, nil
}

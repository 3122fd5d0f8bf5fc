package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
)

type redisStorage struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisStorage persists documents as plain string values under keyPrefix+key.
// Values carry no TTL; inventory state lives until it is overwritten or deleted.
func NewRedisStorage(client redis.UniversalClient, keyPrefix string) domain.KeyValueStorage {
	return &redisStorage{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *redisStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	data, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: get %s: %w", ErrRedisConnection, key, err)
	}

	return data, true, nil
}

func (s *redisStorage) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}

	if err := s.client.Set(ctx, s.keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrRedisConnection, key, err)
	}

	return nil
}

func (s *redisStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrRedisConnection, key, err)
	}

	return nil
}

// Package bootstrap opens the external resources shared by the server and expiryctl.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/config"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
	"github.com/KasumiMercury/primind-expiry-reminder/internal/infra/kvstore"
)

// Storage is the opened key-value backend. Redis is nil for the memory backend.
type Storage struct {
	KV    domain.KeyValueStorage
	Redis redis.UniversalClient
}

func (s *Storage) Close() error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Close()
}

func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg.Storage.Backend == config.StorageBackendMemory {
		slog.WarnContext(ctx, "using in-memory storage, inventory is lost on exit")
		return &Storage{KV: kvstore.NewMemoryStorage()}, nil
	}

	opts := &redis.UniversalOptions{
		Addrs:    []string{cfg.Redis.Addr},
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	if cfg.Redis.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewUniversalClient(opts)

	if err := redisotel.InstrumentTracing(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("instrument redis tracing: %w", err)
	}
	if err := redisotel.InstrumentMetrics(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("instrument redis metrics: %w", err)
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	slog.InfoContext(ctx, "redis connected",
		slog.String("addr", cfg.Redis.Addr),
		slog.String("key_prefix", cfg.Redis.KeyPrefix),
	)

	return &Storage{
		KV:    kvstore.NewRedisStorage(client, cfg.Redis.KeyPrefix),
		Redis: client,
	}, nil
}

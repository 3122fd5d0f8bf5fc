package config

import (
	"os"
	"strings"
)

const (
	storageBackendEnv = "STORAGE_BACKEND"

	defaultStorageBackend = StorageBackendRedis
)

type StorageBackend string

const (
	StorageBackendRedis  StorageBackend = "redis"
	StorageBackendMemory StorageBackend = "memory"
)

type StorageConfig struct {
	Backend StorageBackend
}

func LoadStorageConfig() *StorageConfig {
	backend := StorageBackend(strings.ToLower(os.Getenv(storageBackendEnv)))
	if backend == "" {
		backend = defaultStorageBackend
	}

	return &StorageConfig{
		Backend: backend,
	}
}

func (c *StorageConfig) Validate() error {
	if c.Backend != StorageBackendRedis && c.Backend != StorageBackendMemory {
		return ErrInvalidStorageBackend
	}
	return nil
}

package config

import "path/filepath"

const (
	StorageMemory = "memory"
	StorageBolt   = "bolt"
	StorageRedis  = "redis"
)

type Storage struct{}

var _ StorageConfig = Storage{}

// GetStorageBackend returns one of "bolt" (default), "redis" or "memory"
func (Storage) GetStorageBackend() string {
	return GetEnv("STORAGE", StorageBolt)
}

func (Storage) GetStorageFile() string {
	return GetEnv("STORAGE_FILE", filepath.Join(EnvVars{}.GetDataFolder(), "console.db"))
}

func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Storage) GetRedisPrefix() string {
	return GetEnv("REDIS_PREFIX", "console:")
}

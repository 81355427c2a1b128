package config

import "time"

type Config interface {
	EnvConfig
	SessionConfig
	StorageConfig
	DevServerConfig
}

type EnvConfig interface {
	GetAppName() string
	GetAPIBaseURL() string
	GetDataFolder() string
	GetLogLevel() string
	GetEnv() string
}

type SessionConfig interface {
	GetLoginRoute() string
	GetDefaultRoute() string
	GetRefreshTimeout() time.Duration
	GetAuthPaths() []string
}

type StorageConfig interface {
	GetStorageBackend() string
	GetStorageFile() string
	GetRedisAddr() string
	GetRedisPrefix() string
}

type DevServerConfig interface {
	GetDevServerAddr() string
	GetSigningSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type mainConfig struct {
	EnvVars
	Session
	Storage
	DevServer
}

func New() Config {
	return mainConfig{}
}

package config

import (
	"strings"
	"time"
)

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetLoginRoute() string {
	return GetEnv("LOGIN_ROUTE", "/auth/login")
}

func (Session) GetDefaultRoute() string {
	return GetEnv("DEFAULT_ROUTE", "/")
}

// GetRefreshTimeout bounds the shared refresh call. Zero disables the bound.
func (Session) GetRefreshTimeout() time.Duration {
	return GetDuration("REFRESH_TIMEOUT", 30*time.Second)
}

// GetAuthPaths lists the API paths that never trigger a token refresh on 401
func (Session) GetAuthPaths() []string {
	paths := GetEnv("AUTH_PATHS", "/api/auth/login,/api/auth/verify,/api/auth/refresh")
	return strings.Split(paths, ",")
}

// GetDuration parses a duration env var, returning defaultValue when unset or invalid
func GetDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := GetEnv(envVar, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

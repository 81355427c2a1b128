package config

import "time"

type DevServer struct{}

var _ DevServerConfig = DevServer{}

func (DevServer) GetDevServerAddr() string {
	return GetEnv("DEV_SERVER_ADDR", ":8081")
}

// GetSigningSecret is the HMAC secret for development access tokens only
func (DevServer) GetSigningSecret() string {
	return GetEnv("DEV_SIGNING_SECRET", "dev-secret-change-me")
}

func (DevServer) GetAccessTokenExpiry() time.Duration {
	return GetDuration("DEV_ACCESS_TOKEN_EXPIRY", 15*time.Minute)
}

func (DevServer) GetRefreshTokenExpiry() time.Duration {
	return GetDuration("DEV_REFRESH_TOKEN_EXPIRY", 7*24*time.Hour) // 7 days
}

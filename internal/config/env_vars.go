package config

import (
	"os"
	"strings"
)

const (
	appNameVar  = "APP_NAME"
	apiURLVar   = "CONSOLE_API_URL"
	folderVar   = "FOLDER"
	logLevelVar = "LOG_LEVEL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Retail Console")
}

// GetAPIBaseURL returns the console API base URL (e.g., "https://api.example.com")
func (EnvVars) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv(apiURLVar, "http://localhost:8081"), "/")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderVar, "./data")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

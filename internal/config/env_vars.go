package config

import (
	"os"
	"strings"
)

const (
	appNameEnvVar  = "APP_NAME"
	envEnvVar      = "ENV"
	logLevelEnvVar = "LOG_LEVEL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

// GetAppName is the site title appended to every page title.
func (EnvVars) GetAppName() string {
	return GetEnv(appNameEnvVar, "Python-100-Days")
}

func (EnvVars) GetEnv() string {
	return strings.ToUpper(GetEnv(envEnvVar, "DEV"))
}

func (EnvVars) GetLogLevel() string {
	return strings.ToLower(GetEnv(logLevelEnvVar, "info"))
}

func GetEnv(envVar, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(envVar))
	if value == "" {
		return defaultValue
	}
	return value
}

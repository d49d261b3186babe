package config

import "time"

type Config interface {
	EnvConfig
	APIConfig
	StoreConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type APIConfig interface {
	GetBaseURL() string
	GetAPIPrefix() string
	GetRequestTimeout() time.Duration
}

type StoreConfig interface {
	GetStoreDriver() string
	GetStorePath() string
	GetStoreDSN() string
	GetStoreSecret() string
}

type mainConfig struct {
	EnvVars
	API
	Store
}

func New() Config {
	return mainConfig{}
}

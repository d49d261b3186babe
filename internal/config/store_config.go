package config

import (
	"os"
	"path/filepath"
)

const (
	StoreDriverFile     = "file"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	storeDriverEnvVar = "STORE_DRIVER"
	storePathEnvVar   = "STORE_PATH"
	storeDSNEnvVar    = "STORE_DSN"
	storeSecretEnvVar = "STORE_SECRET"
)

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetStoreDriver() string {
	return GetEnv(storeDriverEnvVar, StoreDriverFile)
}

// GetStorePath is the credentials file used by the file driver.
func (Store) GetStorePath() string {
	return GetEnv(storePathEnvVar, defaultStorePath())
}

// GetStoreDSN is used by the sqlite and postgres drivers.
func (Store) GetStoreDSN() string {
	return GetEnv(storeDSNEnvVar, "file:learnctl.db?cache=shared")
}

// GetStoreSecret enables at-rest encryption of the file store when non-empty.
func (Store) GetStoreSecret() string {
	return GetEnv(storeSecretEnvVar, "")
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./data/credentials.json"
	}
	return filepath.Join(dir, "learnctl", "credentials.json")
}

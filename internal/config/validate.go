package config

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Validate checks the values that would otherwise fail late, on the first request or store access.
func Validate(c Config) error {
	driver := c.GetStoreDriver()

	errs := validation.Errors{
		"app_name": validation.Validate(c.GetAppName(), validation.Required),
		"base_url": validation.Validate(c.GetBaseURL(), validation.Required, is.URL),
		"timeout":  validation.Validate(int64(c.GetRequestTimeout()), validation.Min(int64(1))),
		"store_driver": validation.Validate(driver, validation.Required,
			validation.In(StoreDriverFile, StoreDriverSQLite, StoreDriverPostgres, StoreDriverMemory)),
		"log_level": validation.Validate(c.GetLogLevel(),
			validation.In("trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled")),
	}

	switch driver {
	case StoreDriverFile:
		errs["store_path"] = validation.Validate(c.GetStorePath(), validation.Required)
	case StoreDriverSQLite, StoreDriverPostgres:
		errs["store_dsn"] = validation.Validate(c.GetStoreDSN(), validation.Required)
	}

	return errs.Filter()
}

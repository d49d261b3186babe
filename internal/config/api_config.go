package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	baseURLEnvVar = "API_BASE_URL"
	prefixEnvVar  = "API_PREFIX"
	timeoutEnvVar = "API_TIMEOUT"

	defaultRequestTimeout = 15 * time.Second
)

type API struct{}

var _ APIConfig = API{}

// GetBaseURL returns the origin the API prefix is appended to (e.g. "http://localhost:9540").
func (API) GetBaseURL() string {
	return strings.TrimRight(GetEnv(baseURLEnvVar, "http://localhost:9540"), "/")
}

func (API) GetAPIPrefix() string {
	prefix := GetEnv(prefixEnvVar, "/api")
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimRight(prefix, "/")
}

// GetRequestTimeout accepts Go duration strings ("15s", "1m"). Invalid values fall back to 15s.
func (API) GetRequestTimeout() time.Duration {
	raw := GetEnv(timeoutEnvVar, "")
	if raw == "" {
		return defaultRequestTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warn().Str("value", raw).Msg("invalid API_TIMEOUT, using default")
		return defaultRequestTimeout
	}
	return d
}

// APIRoot joins the base URL and the API prefix.
func APIRoot(c APIConfig) string {
	return c.GetBaseURL() + c.GetAPIPrefix()
}

// internal/respond/fallback-format/config.go
package fallbackformat

import (
	"time"

	"skyconnect-match/internal/common/config"
)

const DefaultCacheTTL = time.Minute

type Config struct {
	// RegistryPath is optional. Empty means built-in templates only.
	RegistryPath string
	CacheTTL     time.Duration
}

func LoadConfig() *Config {
	return &Config{
		CacheTTL: DefaultCacheTTL,
	}
}

func FromFallbackConfig(cfg config.FallbackConfig) *Config {
	ttl := config.GetDuration(cfg.CacheTTL)
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Config{
		RegistryPath: cfg.RegistryPath,
		CacheTTL:     ttl,
	}
}

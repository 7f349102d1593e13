// internal/matching/parse-query/config.go
package parsequery

import "time"

// No per-stage tunables needed, but struct provided for consistency
type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 2 * time.Second,
	}
}

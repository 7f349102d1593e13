// internal/respond/generate-text/config.go
package generatetext

import (
	"time"

	"skyconnect-match/internal/common/config"
)

const (
	DefaultMaxTokens   = 400
	DefaultTemperature = 0.7
)

type Config struct {
	ID          string
	URL         string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// FromBackendConfig builds an adapter config from one entry of the
// backends list. API keys arrive already resolved by the loader.
func FromBackendConfig(cfg config.BackendConfig) *Config {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}

	return &Config{
		ID:          cfg.ID,
		URL:         cfg.URL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Timeout:     config.GetDuration(cfg.Timeout),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

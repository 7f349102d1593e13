// internal/orchestrator/config.go
package orchestrator

import "skyconnect-match/internal/common/config"

const (
	DefaultTopN            = 3
	DefaultPromptWordLimit = 120
)

type Config struct {
	TopN            int
	PromptWordLimit int
}

func LoadConfig() *Config {
	return &Config{
		TopN:            DefaultTopN,
		PromptWordLimit: DefaultPromptWordLimit,
	}
}

func FromMatchingConfig(cfg config.MatchingConfig) *Config {
	c := LoadConfig()
	if cfg.TopN > 0 {
		c.TopN = cfg.TopN
	}
	if cfg.PromptWordLimit > 0 {
		c.PromptWordLimit = cfg.PromptWordLimit
	}
	return c
}

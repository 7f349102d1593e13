// internal/alerting/config.go
package alerting

import (
	"time"

	"skyconnect-match/internal/common/config"
)

const (
	DefaultThreshold = 5
	DefaultWindow    = 5 * time.Minute
	DefaultCooldown  = 15 * time.Minute

	// PublishTimeout bounds a single alert delivery. The alert is sent
	// synchronously on the request path, so it must give up quickly.
	PublishTimeout = 2 * time.Second
)

type Config struct {
	Enabled   bool
	Region    string
	TopicARN  string
	FromEmail string
	ToEmail   string
	Threshold int
	Window    time.Duration
	Cooldown  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Enabled:   false,
		Threshold: DefaultThreshold,
		Window:    DefaultWindow,
		Cooldown:  DefaultCooldown,
	}
}

func FromAlertingConfig(cfg config.AlertingConfig) *Config {
	c := LoadConfig()
	c.Enabled = cfg.Enabled
	c.Region = cfg.Region
	c.TopicARN = cfg.TopicARN
	c.FromEmail = cfg.FromEmail
	c.ToEmail = cfg.ToEmail
	if cfg.Threshold > 0 {
		c.Threshold = cfg.Threshold
	}
	if cfg.Window > 0 {
		c.Window = config.GetDuration(cfg.Window)
	}
	if cfg.Cooldown > 0 {
		c.Cooldown = config.GetDuration(cfg.Cooldown)
	}
	return c
}

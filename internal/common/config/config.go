// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig       `mapstructure:"app"`
	Server   ServerConfig    `mapstructure:"server"`
	Database DatabaseConfig  `mapstructure:"database"`
	Catalog  CatalogConfig   `mapstructure:"catalog"`
	Profiles ProfilesConfig  `mapstructure:"profiles"`
	Matching MatchingConfig  `mapstructure:"matching"`
	Backends []BackendConfig `mapstructure:"backends"`
	Fallback FallbackConfig  `mapstructure:"fallback"`
	Alerting AlertingConfig  `mapstructure:"alerting"`
	Logging  LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Matching Pipeline Sections ---

// CatalogConfig selects and bounds the candidate store.
type CatalogConfig struct {
	Store      string `mapstructure:"store"` // "elasticsearch" or "postgres"
	Index      string `mapstructure:"index"`
	Table      string `mapstructure:"table"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxResults int    `mapstructure:"max_results"`
}

// ProfilesConfig bounds the user preference lookups. Only profiles are
// cached; listing availability and price are always read live.
type ProfilesConfig struct {
	CacheTTL int `mapstructure:"cache_ttl"` // milliseconds
	Timeout  int `mapstructure:"timeout"`   // milliseconds
}

type MatchingConfig struct {
	TopN            int `mapstructure:"top_n"`
	PromptWordLimit int `mapstructure:"prompt_word_limit"`
}

// BackendConfig describes one text-generation backend. Chain order is the
// order of the backends list in config.
type BackendConfig struct {
	ID          string  `mapstructure:"id"`
	URL         string  `mapstructure:"url"`
	APIKey      string  `mapstructure:"api_key"`
	APIKeyEnv   string  `mapstructure:"api_key_env"`
	Model       string  `mapstructure:"model"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// FallbackConfig points at the optional response template registry.
type FallbackConfig struct {
	RegistryPath string `mapstructure:"registry_path"`
	CacheTTL     int    `mapstructure:"cache_ttl"` // milliseconds
}

// AlertingConfig controls degradation alerts for sustained chain exhaustion.
type AlertingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Region    string `mapstructure:"region"`
	TopicARN  string `mapstructure:"topic_arn"`
	FromEmail string `mapstructure:"from_email"`
	ToEmail   string `mapstructure:"to_email"`
	Threshold int    `mapstructure:"threshold"`
	Window    int    `mapstructure:"window"`   // milliseconds
	Cooldown  int    `mapstructure:"cooldown"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

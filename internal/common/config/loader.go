// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_HOST
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, e.g. config.development.yaml
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env in the working directory, a few parents, and the
// module root, so binaries and tests behave the same from any directory.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				fmt.Printf("loaded .env from: %s\n", path)
				return
			}
		}
	}

	fmt.Printf(".env file not found, using system environment variables\n")
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	// Backend API keys resolve through their declared env var names, so
	// secrets never have to live in the YAML files.
	for i := range cfg.Backends {
		b := &cfg.Backends[i]
		if b.APIKey == "" && b.APIKeyEnv != "" {
			if val := os.Getenv(b.APIKeyEnv); val != "" {
				b.APIKey = val
			}
		}
	}

	// Database overrides
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}

	// Alerting destinations
	if cfg.Alerting.TopicARN == "" {
		if val := os.Getenv("ALERT_TOPIC_ARN"); val != "" {
			cfg.Alerting.TopicARN = val
		}
	}
	if cfg.Alerting.ToEmail == "" {
		if val := os.Getenv("ALERT_TO_EMAIL"); val != "" {
			cfg.Alerting.ToEmail = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}

	// Database defaults
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	// Elasticsearch URL fallback
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	// Catalog defaults: the store call is the tightest external deadline in
	// the pipeline.
	if cfg.Catalog.Store == "" {
		cfg.Catalog.Store = "elasticsearch"
	}
	if cfg.Catalog.Index == "" {
		cfg.Catalog.Index = "listings"
	}
	if cfg.Catalog.Table == "" {
		cfg.Catalog.Table = "listings"
	}
	if cfg.Catalog.Timeout == 0 {
		cfg.Catalog.Timeout = 2000
	}
	if cfg.Catalog.MaxResults == 0 {
		cfg.Catalog.MaxResults = 50
	}

	// Profile defaults
	if cfg.Profiles.CacheTTL == 0 {
		cfg.Profiles.CacheTTL = 300000
	}
	if cfg.Profiles.Timeout == 0 {
		cfg.Profiles.Timeout = 2000
	}

	// Matching defaults
	if cfg.Matching.TopN == 0 {
		cfg.Matching.TopN = 3
	}
	if cfg.Matching.PromptWordLimit == 0 {
		cfg.Matching.PromptWordLimit = 120
	}

	// Backend chain defaults: groq first, gemini second, with per-attempt
	// deadlines in the 5-8s band.
	if len(cfg.Backends) == 0 {
		cfg.Backends = []BackendConfig{
			{
				ID:        "groq",
				URL:       "http://localhost:9101/v1/generate",
				APIKeyEnv: "GROQ_API_KEY",
				Model:     "llama-3.3-70b-versatile",
				Timeout:   6000,
			},
			{
				ID:        "gemini",
				URL:       "http://localhost:9102/v1/generate",
				APIKeyEnv: "GEMINI_API_KEY",
				Model:     "gemini-1.5-flash",
				Timeout:   8000,
			},
		}
	}
	for i := range cfg.Backends {
		if cfg.Backends[i].Timeout == 0 {
			cfg.Backends[i].Timeout = 6000
		}
		if cfg.Backends[i].MaxTokens == 0 {
			cfg.Backends[i].MaxTokens = 300
		}
		if cfg.Backends[i].Temperature == 0 {
			cfg.Backends[i].Temperature = 0.7
		}
	}

	// Fallback template registry cache
	if cfg.Fallback.CacheTTL == 0 {
		cfg.Fallback.CacheTTL = 300000
	}

	// Alerting defaults
	if cfg.Alerting.Threshold == 0 {
		cfg.Alerting.Threshold = 5
	}
	if cfg.Alerting.Window == 0 {
		cfg.Alerting.Window = 300000
	}
	if cfg.Alerting.Cooldown == 0 {
		cfg.Alerting.Cooldown = 900000
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required")
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if cfg.Catalog.Store != "elasticsearch" && cfg.Catalog.Store != "postgres" {
		return fmt.Errorf("catalog.store must be elasticsearch or postgres, got %q", cfg.Catalog.Store)
	}

	if len(cfg.Backends) == 0 {
		return fmt.Errorf("at least one backend is required")
	}
	seen := make(map[string]bool, len(cfg.Backends))
	for _, b := range cfg.Backends {
		if b.ID == "" {
			return fmt.Errorf("backend id is required")
		}
		if b.URL == "" {
			return fmt.Errorf("backend %s: url is required", b.ID)
		}
		if seen[b.ID] {
			return fmt.Errorf("backend id %q is duplicated", b.ID)
		}
		seen[b.ID] = true
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Nivesh
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Sync        SyncConfig      `toml:"sync"`
	Universe    UniverseConfig  `toml:"universe"`
	Recommend   RecommendConfig `toml:"recommend"`
	Search      SearchConfig    `toml:"search"`
	Advice      AdviceConfig    `toml:"advice"`
	Storage     StorageConfig   `toml:"storage"`
	Clients     ClientsConfig   `toml:"clients"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// SyncConfig controls the periodic NAV refresh.
type SyncConfig struct {
	Interval     string `toml:"interval"`
	FetchTimeout string `toml:"fetch_timeout"`
	Concurrency  int    `toml:"concurrency"`
	OnStart      bool   `toml:"on_start"`
}

// GetInterval parses the refresh period, defaulting to 15 minutes.
func (c *SyncConfig) GetInterval() time.Duration {
	d, err := time.ParseDuration(c.Interval)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// GetFetchTimeout parses the per-fund fetch timeout.
func (c *SyncConfig) GetFetchTimeout() time.Duration {
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil || d <= 0 {
		return 20 * time.Second
	}
	return d
}

// UniverseConfig points at an optional seed file replacing the embedded one.
type UniverseConfig struct {
	SeedFile string `toml:"seed_file"`
}

// RecommendConfig holds shortlist settings
type RecommendConfig struct {
	Limit int `toml:"limit"`
}

// SearchConfig holds fund search settings
type SearchConfig struct {
	MinQueryLength int `toml:"min_query_length"`
	MaxResults     int `toml:"max_results"`
}

// AdviceConfig selects the LLM behind the advice collaborator.
type AdviceConfig struct {
	Provider string `toml:"provider"` // "gemini", "claude" or "none"
	Timeout  string `toml:"timeout"`
	CacheTTL string `toml:"cache_ttl"`
}

// GetTimeout parses and returns the timeout duration
func (c *AdviceConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// GetCacheTTL parses the narrative cache TTL.
func (c *AdviceConfig) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d < 0 {
		return FreshnessAdvice
	}
	return d
}

// StorageConfig holds cache storage configuration.
type StorageConfig struct {
	Backend   string `toml:"backend"` // "badger", "surrealdb" or "memory"
	Path      string `toml:"path"`    // badger directory
	Address   string `toml:"address"` // surrealdb address
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	MFAPI  MFAPIConfig  `toml:"mfapi"`
	Gemini GeminiConfig `toml:"gemini"`
	Claude ClaudeConfig `toml:"claude"`
}

// MFAPIConfig holds NAV history API configuration
type MFAPIConfig struct {
	BaseURL         string `toml:"base_url"`
	RateLimit       int    `toml:"rate_limit"`
	Timeout         string `toml:"timeout"`
	BreakerFailures int    `toml:"breaker_failures"`
	BreakerCooldown string `toml:"breaker_cooldown"`
}

// GetTimeout parses and returns the timeout duration
func (c *MFAPIConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetBreakerCooldown parses how long the breaker stays open.
func (c *MFAPIConfig) GetBreakerCooldown() time.Duration {
	d, err := time.ParseDuration(c.BreakerCooldown)
	if err != nil {
		return time.Minute
	}
	return d
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
}

// ClaudeConfig holds Anthropic API configuration
type ClaudeConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Format   string   `toml:"format"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Sync: SyncConfig{
			Interval:     "15m",
			FetchTimeout: "20s",
			Concurrency:  8,
			OnStart:      true,
		},
		Recommend: RecommendConfig{Limit: 3},
		Search: SearchConfig{
			MinQueryLength: 3,
			MaxResults:     8,
		},
		Advice: AdviceConfig{
			Provider: "gemini",
			Timeout:  "30s",
			CacheTTL: "1h",
		},
		Storage: StorageConfig{
			Backend:   "badger",
			Path:      "data/cache",
			Address:   "ws://localhost:8000/rpc",
			Namespace: "nivesh",
			Database:  "nivesh",
			Username:  "root",
			Password:  "root",
		},
		Clients: ClientsConfig{
			MFAPI: MFAPIConfig{
				BaseURL:         "https://api.mfapi.in/mf",
				RateLimit:       10,
				Timeout:         "30s",
				BreakerFailures: 5,
				BreakerCooldown: "1m",
			},
			Gemini: GeminiConfig{
				Model:       "gemini-2.0-flash",
				Temperature: 0.4,
			},
			Claude: ClaudeConfig{
				Model:     "claude-sonnet-4-20250514",
				MaxTokens: 2048,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "console",
			Outputs:  []string{"console"},
			FilePath: "./logs/nivesh.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("NIVESH_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("NIVESH_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("NIVESH_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("NIVESH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("NIVESH_DATA_PATH"); path != "" {
		config.Storage.Path = filepath.Join(path, "cache")
	}

	if v := os.Getenv("NIVESH_STORAGE_BACKEND"); v != "" {
		config.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("NIVESH_STORAGE_ADDRESS"); v != "" {
		config.Storage.Address = v
	}

	if v := os.Getenv("NIVESH_SYNC_INTERVAL"); v != "" {
		config.Sync.Interval = v
	}

	if v := os.Getenv("NIVESH_MFAPI_BASE_URL"); v != "" {
		config.Clients.MFAPI.BaseURL = v
	}

	if v := os.Getenv("NIVESH_ADVICE_PROVIDER"); v != "" {
		config.Advice.Provider = strings.ToLower(v)
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ResolveAPIKey resolves an API key from the environment or the configured fallback
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key": {"GEMINI_API_KEY", "NIVESH_GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"claude_api_key": {"ANTHROPIC_API_KEY", "NIVESH_CLAUDE_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for Kiosk-Gateway
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Models     ModelsConfig     `yaml:"models"`
	Cache      CacheConfig      `yaml:"cache"`
	Session    SessionConfig    `yaml:"session"`
	Filter     FilterConfig     `yaml:"filter"`
	Translator TranslatorConfig `yaml:"translator"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
	Channels   ChannelsConfig   `yaml:"channels"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig defines HTTP server settings
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// ModelConfig defines a single model backend
type ModelConfig struct {
	Provider    string  `yaml:"provider"`
	Name        string  `yaml:"name"`
	URL         string  `yaml:"url,omitempty"`
	APIKey      string  `yaml:"api_key,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
	Timeout     string  `yaml:"timeout,omitempty"`
}

// GetTimeout returns the per-call timeout as a time.Duration
func (m *ModelConfig) GetTimeout() time.Duration {
	if m.Timeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(m.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ModelsConfig defines the primary model and its ordered fallbacks
type ModelsConfig struct {
	Primary       ModelConfig   `yaml:"primary"`
	Fallbacks     []ModelConfig `yaml:"fallbacks,omitempty"`
	ContextWindow int           `yaml:"context_window,omitempty"`
}

// CacheConfig defines response cache settings
type CacheConfig struct {
	TTL     string `yaml:"ttl,omitempty"`
	MaxSize int    `yaml:"max_size,omitempty"`
}

// GetTTL returns the cache TTL as a time.Duration
func (c *CacheConfig) GetTTL() time.Duration {
	if c.TTL == "" {
		return 24 * time.Hour
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// SessionConfig defines session lifecycle settings
type SessionConfig struct {
	MaxTurns           int    `yaml:"max_turns,omitempty"`
	MaxInputLength     int    `yaml:"max_input_length,omitempty"`
	ContextPairs       int    `yaml:"context_pairs,omitempty"`
	DefaultLanguage    string `yaml:"default_language,omitempty"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute,omitempty"`
	IdleTimeout        string `yaml:"idle_timeout,omitempty"`
}

// GetIdleTimeout returns the idle session timeout as a time.Duration
func (s *SessionConfig) GetIdleTimeout() time.Duration {
	if s.IdleTimeout == "" {
		return 30 * time.Minute
	}
	d, err := time.ParseDuration(s.IdleTimeout)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// FilterConfig defines content filter settings
type FilterConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Patterns []string `yaml:"patterns,omitempty"`
}

// TranslatorConfig defines translation service settings
type TranslatorConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
	APIKey  string `yaml:"api_key,omitempty"`
}

// AnalyticsConfig defines analytics store settings
type AnalyticsConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path,omitempty"`
}

// ChannelsConfig defines channel configurations
type ChannelsConfig struct {
	WebChat WebChatConfig `yaml:"webchat"`
}

// WebChatConfig defines WebChat channel settings
type WebChatConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// LoggingConfig defines logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load loads configuration from a YAML file with environment variable overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	return &cfg, nil
}

// applyDefaults fills zero values with sensible kiosk defaults
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 18700
	}
	if c.Models.ContextWindow == 0 {
		c.Models.ContextWindow = 1000
	}
	if c.Cache.MaxSize == 0 {
		c.Cache.MaxSize = 1000
	}
	if c.Session.MaxTurns == 0 {
		c.Session.MaxTurns = 50
	}
	if c.Session.MaxInputLength == 0 {
		c.Session.MaxInputLength = 500
	}
	if c.Session.ContextPairs == 0 {
		c.Session.ContextPairs = 3
	}
	if c.Session.DefaultLanguage == "" {
		c.Session.DefaultLanguage = "en"
	}
	if c.Session.RateLimitPerMinute == 0 {
		c.Session.RateLimitPerMinute = 30
	}
	if c.Analytics.DBPath == "" {
		c.Analytics.DBPath = "kiosk_analytics.db"
	}
}

// applyEnvOverrides applies environment variable overrides to the config
func (c *Config) applyEnvOverrides() {
	if port := os.Getenv("KIOSK_PORT"); port != "" {
		fmt.Sscanf(port, "%d", &c.Server.Port)
	}
	if path := os.Getenv("KIOSK_ANALYTICS_DB"); path != "" {
		c.Analytics.DBPath = path
	}
	if url := os.Getenv("OLLAMA_URL"); url != "" {
		c.overrideProvider("ollama", func(m *ModelConfig) { m.URL = url })
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		c.overrideProvider("openai", func(m *ModelConfig) { m.APIKey = apiKey })
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		c.overrideProvider("anthropic", func(m *ModelConfig) { m.APIKey = apiKey })
	}
}

func (c *Config) overrideProvider(provider string, apply func(*ModelConfig)) {
	if c.Models.Primary.Provider == provider {
		apply(&c.Models.Primary)
	}
	for i := range c.Models.Fallbacks {
		if c.Models.Fallbacks[i].Provider == provider {
			apply(&c.Models.Fallbacks[i])
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Models.Primary.Provider == "" || c.Models.Primary.Name == "" {
		return fmt.Errorf("primary model provider and name are required")
	}
	for _, fb := range c.Models.Fallbacks {
		if fb.Provider == "" || fb.Name == "" {
			return fmt.Errorf("fallback model provider and name are required")
		}
	}
	if c.Cache.MaxSize < 0 {
		return fmt.Errorf("cache max_size must not be negative")
	}
	if c.Channels.WebChat.Enabled && c.Channels.WebChat.Port <= 0 {
		return fmt.Errorf("webchat port is required when webchat is enabled")
	}
	return nil
}

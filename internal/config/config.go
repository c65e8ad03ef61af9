// Package config provides configuration management with hot-reload support.
// It uses fsnotify to watch for file changes and atomic pointer swaps for zero-downtime updates.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultAPIKeyRef is where the API key is looked up when none is configured.
const DefaultAPIKeyRef = "env://GROQ_API_KEY"

// DefaultUserAgent is a desktop browser string. Some upstream edges reject
// requests without one.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Config represents the complete dev server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	CORS     CORSConfig     `yaml:"cors"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Secrets  SecretsConfig  `yaml:"secrets"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	PublicDir       string        `yaml:"public_dir"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	OpenBrowser     bool          `yaml:"open_browser"`
	BrowserDelay    time.Duration `yaml:"browser_delay"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// URL returns the address a browser should open.
func (s ServerConfig) URL() string {
	host := s.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + host + ":" + strconv.Itoa(s.Port)
}

// UpstreamConfig selects and tunes the chat-completion API.
type UpstreamConfig struct {
	Provider            string            `yaml:"provider"` // groq, openai, openai_compatible
	BaseURL             string            `yaml:"base_url"`
	AllowPrivateBaseURL bool              `yaml:"allow_private_base_url"`
	APIKey              string            `yaml:"api_key"` // env://NAME, vault://path#key, or a literal
	PromptForKey        bool              `yaml:"prompt_for_key"`
	Model               string            `yaml:"model"`
	Timeout             time.Duration     `yaml:"timeout"`
	Temperature         float64           `yaml:"temperature"`
	MaxCompletionTokens int               `yaml:"max_completion_tokens"`
	UserAgent           string            `yaml:"user_agent"`
	Headers             map[string]string `yaml:"headers"`
	DefaultMimeType     string            `yaml:"default_mime_type"`
	DefaultPrompt       string            `yaml:"default_prompt"`
	MaxRequestBytes     int64             `yaml:"max_request_bytes"`
	MaxResponseBytes    int64             `yaml:"max_response_bytes"`
}

// CORSConfig controls the CORS headers added to every response.
type CORSConfig struct {
	AllowOrigins  []string      `yaml:"allow_origins"` // "*" allows any origin
	AllowMethods  []string      `yaml:"allow_methods"`
	AllowHeaders  []string      `yaml:"allow_headers"`
	ExposeHeaders []string      `yaml:"expose_headers"`
	MaxAge        time.Duration `yaml:"max_age"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// TracingConfig contains OpenTelemetry tracing settings.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`     // OTLP endpoint (e.g., "localhost:4317")
	ServiceName string  `yaml:"service_name"` // Service name for traces
	SampleRate  float64 `yaml:"sample_rate"`  // Sampling rate (0.0 to 1.0)
	Insecure    bool    `yaml:"insecure"`     // Use insecure connection (no TLS)
}

// SecretsConfig configures the secret backends behind api_key references.
type SecretsConfig struct {
	Vault VaultConfig `yaml:"vault"`
}

// VaultConfig enables vault:// references when Address is set.
type VaultConfig struct {
	Address    string `yaml:"address"`
	AuthMethod string `yaml:"auth_method"` // approle, cert
	RoleID     string `yaml:"role_id"`
	SecretID   string `yaml:"secret_id"`
	CACert     string `yaml:"ca_cert"`
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            3000,
			PublicDir:       "public",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			OpenBrowser:     true,
			BrowserDelay:    800 * time.Millisecond,
		},
		Upstream: UpstreamConfig{
			Provider:            "groq",
			APIKey:              DefaultAPIKeyRef,
			PromptForKey:        true,
			Model:               "meta-llama/llama-4-scout-17b-16e-instruct",
			Timeout:             90 * time.Second,
			Temperature:         0,
			MaxCompletionTokens: 1024,
			UserAgent:           DefaultUserAgent,
			DefaultMimeType:     "image/jpeg",
			DefaultPrompt:       "Extract all fields from this identity document as JSON.",
			MaxRequestBytes:     20 * 1024 * 1024,
			MaxResponseBytes:    10 * 1024 * 1024,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"POST", "GET", "OPTIONS"},
			AllowHeaders: []string{"Content-Type"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			ServiceName: "vaultid-devserver",
			SampleRate:  1.0,
			Insecure:    true,
		},
	}
}

// Load reads path when it exists and falls back to defaults when it does not.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	if path != "" {
		cfg, err := LoadFromFile(path)
		if err == nil || !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
	}

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile reads and parses a YAML configuration file.
// Environment variables in the format ${VAR_NAME} are expanded.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if strings.TrimSpace(cfg.Upstream.APIKey) == "" {
		cfg.Upstream.APIKey = DefaultAPIKeyRef
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides lets PORT and PUBLIC_DIR win over the file.
func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := strings.TrimSpace(os.Getenv("PUBLIC_DIR")); v != "" {
		cfg.Server.PublicDir = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.PublicDir == "" {
		return fmt.Errorf("server.public_dir is required")
	}
	if c.Server.BrowserDelay < 0 {
		return fmt.Errorf("server.browser_delay cannot be negative")
	}

	u := c.Upstream
	if u.Provider == "" {
		return fmt.Errorf("upstream.provider is required")
	}
	if u.Provider == "openai_compatible" && u.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required for provider openai_compatible")
	}
	if u.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if u.MaxCompletionTokens <= 0 {
		return fmt.Errorf("upstream.max_completion_tokens must be positive")
	}
	if u.Temperature < 0 || u.Temperature > 2 {
		return fmt.Errorf("upstream.temperature must be between 0 and 2, got %v", u.Temperature)
	}
	if u.MaxRequestBytes < 0 || u.MaxResponseBytes < 0 {
		return fmt.Errorf("upstream body caps cannot be negative")
	}

	for _, origin := range c.CORS.AllowOrigins {
		if strings.TrimSpace(origin) == "" {
			return fmt.Errorf("cors.allow_origins contains an empty entry")
		}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1")
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 3000 {
		t.Errorf("default port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Server.PublicDir != "public" {
		t.Errorf("default public dir = %q, want public", cfg.Server.PublicDir)
	}
	if cfg.Server.BrowserDelay != 800*time.Millisecond {
		t.Errorf("default browser delay = %v, want 800ms", cfg.Server.BrowserDelay)
	}
	if cfg.Upstream.Timeout != 90*time.Second {
		t.Errorf("default upstream timeout = %v, want 90s", cfg.Upstream.Timeout)
	}
	if cfg.Upstream.Model != "meta-llama/llama-4-scout-17b-16e-instruct" {
		t.Errorf("default model = %q", cfg.Upstream.Model)
	}
	if cfg.Upstream.APIKey != DefaultAPIKeyRef {
		t.Errorf("default api key ref = %q, want %q", cfg.Upstream.APIKey, DefaultAPIKeyRef)
	}
	if cfg.Server.WriteTimeout <= cfg.Upstream.Timeout {
		t.Error("write timeout must outlast the upstream timeout")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestServerConfig_URL(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"localhost", "http://localhost:3000"},
		{"127.0.0.1", "http://127.0.0.1:3000"},
		{"0.0.0.0", "http://localhost:3000"},
		{"", "http://localhost:3000"},
	}
	for _, tt := range tests {
		s := ServerConfig{Host: tt.host, Port: 3000}
		if got := s.URL(); got != tt.want {
			t.Errorf("URL() with host %q = %q, want %q", tt.host, got, tt.want)
		}
	}
	if got := (ServerConfig{Host: "", Port: 3000}).Addr(); got != ":3000" {
		t.Errorf("Addr() = %q, want :3000", got)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"no public dir", func(c *Config) { c.Server.PublicDir = "" }, "public_dir"},
		{"no provider", func(c *Config) { c.Upstream.Provider = "" }, "upstream.provider"},
		{"compatible without base url", func(c *Config) { c.Upstream.Provider = "openai_compatible" }, "base_url"},
		{"zero timeout", func(c *Config) { c.Upstream.Timeout = 0 }, "timeout"},
		{"zero tokens", func(c *Config) { c.Upstream.MaxCompletionTokens = 0 }, "max_completion_tokens"},
		{"temperature", func(c *Config) { c.Upstream.Temperature = 3 }, "temperature"},
		{"empty origin", func(c *Config) { c.CORS.AllowOrigins = []string{" "} }, "allow_origins"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "sample_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("TEST_VAULTID_MODEL", "llama-from-env")

	path := writeConfigFile(t, `
server:
  port: 4000
  open_browser: false
upstream:
  model: ${TEST_VAULTID_MODEL}
  timeout: 45s
  api_key: ""
  headers:
    X-Trace: "on"
cors:
  allow_origins:
    - http://localhost:4000
logging:
  level: debug
  format: json
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("port = %d, want 4000", cfg.Server.Port)
	}
	if cfg.Server.OpenBrowser {
		t.Error("open_browser should be false")
	}
	if cfg.Server.PublicDir != "public" {
		t.Errorf("unset fields should keep defaults, public_dir = %q", cfg.Server.PublicDir)
	}
	if cfg.Upstream.Model != "llama-from-env" {
		t.Errorf("model = %q, want env expansion", cfg.Upstream.Model)
	}
	if cfg.Upstream.Timeout != 45*time.Second {
		t.Errorf("timeout = %v, want 45s", cfg.Upstream.Timeout)
	}
	if cfg.Upstream.APIKey != DefaultAPIKeyRef {
		t.Errorf("empty api_key should fall back to %q, got %q", DefaultAPIKeyRef, cfg.Upstream.APIKey)
	}
	if cfg.Upstream.Headers["X-Trace"] != "on" {
		t.Errorf("headers = %v", cfg.Upstream.Headers)
	}
	if len(cfg.CORS.AllowOrigins) != 1 || cfg.CORS.AllowOrigins[0] != "http://localhost:4000" {
		t.Errorf("allow_origins = %v", cfg.CORS.AllowOrigins)
	}
}

func TestLoadFromFile_Invalid(t *testing.T) {
	path := writeConfigFile(t, "server: [unclosed")
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("expected parse error")
	}

	path = writeConfigFile(t, "server:\n  port: -1\n")
	if _, err := LoadFromFile(path); err == nil || !strings.Contains(err.Error(), "validate config") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want default 3000", cfg.Server.Port)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "5050")
	t.Setenv("PUBLIC_DIR", "dist")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 5050 {
		t.Errorf("port = %d, want 5050 from PORT", cfg.Server.Port)
	}
	if cfg.Server.PublicDir != "dist" {
		t.Errorf("public_dir = %q, want dist from PUBLIC_DIR", cfg.Server.PublicDir)
	}

	path := writeConfigFile(t, "server:\n  port: 4000\n")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 5050 {
		t.Errorf("PORT should win over the file, got %d", cfg.Server.Port)
	}
}

func TestLoad_UnreadableIsError(t *testing.T) {
	dir := t.TempDir()
	// A directory cannot be read as a file.
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error when config path is a directory")
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestExampleConfigMatchesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("PUBLIC_DIR", "")

	cfg, err := LoadFromFile(filepath.Join("..", "..", "config", "config.example.yaml"))
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("example config drifted from defaults:\n got  %+v\n want %+v", cfg, DefaultConfig())
	}
}

// Package openailike provides a base implementation for OpenAI-compatible providers.
// Groq, OpenAI and most hosted inference APIs share the chat/completions wire format,
// so concrete providers only supply a ProviderInfo.
package openailike

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/vaultid/devserver/internal/provider"
	llmerrors "github.com/vaultid/devserver/pkg/errors"
	"github.com/vaultid/devserver/pkg/types"
)

// MaxErrorMessageChars caps the raw upstream body used as an error message
// when it carries no error.message field.
const MaxErrorMessageChars = 400

// ProviderInfo contains provider-specific configuration.
type ProviderInfo struct {
	// Name is the provider identifier (e.g., "groq").
	Name string

	// DisplayName prefixes upstream error messages (e.g., "Groq").
	DisplayName string

	// DefaultBaseURL is the default API endpoint.
	DefaultBaseURL string

	// DefaultModel is used when no model is configured.
	DefaultModel string

	// ChatEndpoint is the path for chat completions.
	// Default: "/chat/completions"
	ChatEndpoint string

	// ExtraHeaders are additional headers to include in requests.
	ExtraHeaders map[string]string
}

// Provider implements a generic OpenAI-compatible adapter.
type Provider struct {
	info      ProviderInfo
	apiKey    string
	baseURL   string
	userAgent string
	headers   map[string]string
}

// New creates a new OpenAI-like provider instance.
func New(cfg provider.ProviderConfig, info ProviderInfo) (provider.Provider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = info.DefaultBaseURL
	}
	if baseURL == "" {
		return nil, fmt.Errorf("%s: base URL is required", info.Name)
	}
	if info.DisplayName == "" {
		info.DisplayName = info.Name
	}

	return &Provider{
		info:      info,
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: cfg.UserAgent,
		headers:   cfg.Headers,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.info.Name
}

// DisplayName returns the human-facing provider name.
func (p *Provider) DisplayName() string {
	return p.info.DisplayName
}

// DefaultModel returns the model used when none is configured.
func (p *Provider) DefaultModel() string {
	return p.info.DefaultModel
}

// BuildRequest creates the chat/completions HTTP request.
func (p *Provider) BuildRequest(ctx context.Context, req *types.ChatRequest) (*http.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := p.info.ChatEndpoint
	if endpoint == "" {
		endpoint = "/chat/completions"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	if p.userAgent != "" {
		httpReq.Header.Set("User-Agent", p.userAgent)
	}

	for k, v := range p.info.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}
	// Configured headers win over built-in ones.
	for k, v := range p.headers {
		httpReq.Header.Set(k, v)
	}

	return httpReq, nil
}

// ParseResponse decodes a chat completion body.
func (p *Provider) ParseResponse(body []byte) (*types.ChatResponse, error) {
	var chatResp types.ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &chatResp, nil
}

// MapError converts an upstream error response into an error that mirrors its status.
// The message is error.message when the body carries one, otherwise the first
// MaxErrorMessageChars characters of the raw body.
func (p *Provider) MapError(statusCode int, body []byte) error {
	return llmerrors.NewUpstreamError(statusCode, p.info.DisplayName, p.info.Name, "", ErrorMessage(statusCode, body))
}

// ErrorMessage derives a readable message from an upstream error body.
func ErrorMessage(statusCode int, body []byte) string {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}

	raw := strings.ToValidUTF8(string(body), "�")
	if strings.TrimSpace(raw) == "" {
		return fmt.Sprintf("HTTP %d %s", statusCode, http.StatusText(statusCode))
	}
	return truncateChars(raw, MaxErrorMessageChars)
}

func truncateChars(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// BaseURL returns the resolved base URL.
func (p *Provider) BaseURL() string {
	return p.baseURL
}

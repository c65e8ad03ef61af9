// Package provider defines the interface for upstream chat-completion adapters.
// Each adapter turns a unified ChatRequest into a provider HTTP request,
// parses the reply and maps provider error bodies to classified errors.
package provider

import (
	"context"
	"net/http"

	"github.com/vaultid/devserver/pkg/types"
)

// Provider defines what the extraction service needs from an upstream API.
type Provider interface {
	// Name returns the provider identifier (e.g., "groq").
	Name() string

	// DisplayName is used to prefix upstream error messages (e.g., "Groq").
	DisplayName() string

	// DefaultModel is used when the configuration leaves the model empty.
	DefaultModel() string

	// BuildRequest transforms a ChatRequest into a provider-specific HTTP request.
	BuildRequest(ctx context.Context, req *types.ChatRequest) (*http.Request, error)

	// ParseResponse decodes a successful provider response body.
	ParseResponse(body []byte) (*types.ChatResponse, error)

	// MapError converts a non-2xx provider response into a classified error
	// that carries the same status code.
	MapError(statusCode int, body []byte) error
}

// ProviderFactory creates provider instances from configuration.
type ProviderFactory func(cfg ProviderConfig) (Provider, error)

// ProviderConfig contains provider-specific configuration.
type ProviderConfig struct {
	Name                string
	Type                string
	APIKey              string
	BaseURL             string
	AllowPrivateBaseURL bool
	UserAgent           string
	Headers             map[string]string
}

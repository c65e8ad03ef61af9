// Package openai implements the OpenAI provider adapter.
package openai

import (
	"github.com/vaultid/devserver/internal/provider"
	"github.com/vaultid/devserver/internal/provider/openailike"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = "openai"

	// DefaultBaseURL is the default OpenAI API endpoint.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel accepts image_url content parts.
	DefaultModel = "gpt-4o-mini"
)

// New creates a new OpenAI provider instance.
func New(cfg provider.ProviderConfig) (provider.Provider, error) {
	return openailike.New(cfg, openailike.ProviderInfo{
		Name:           ProviderName,
		DisplayName:    "OpenAI",
		DefaultBaseURL: DefaultBaseURL,
		DefaultModel:   DefaultModel,
	})
}

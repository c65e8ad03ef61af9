// Package groq implements the Groq provider adapter.
// Groq serves open-weight vision models (Llama 4 Scout) behind an OpenAI-compatible API.
// API Reference: https://console.groq.com/docs/api-reference
package groq

import (
	"github.com/vaultid/devserver/internal/provider"
	"github.com/vaultid/devserver/internal/provider/openailike"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = "groq"

	// DefaultBaseURL is the default Groq API endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	// DefaultModel is a vision-capable model able to read document images.
	DefaultModel = "meta-llama/llama-4-scout-17b-16e-instruct"
)

// New creates a new Groq provider instance.
func New(cfg provider.ProviderConfig) (provider.Provider, error) {
	return openailike.New(cfg, openailike.ProviderInfo{
		Name:           ProviderName,
		DisplayName:    "Groq",
		DefaultBaseURL: DefaultBaseURL,
		DefaultModel:   DefaultModel,
	})
}

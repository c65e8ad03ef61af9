// Package providers wires every supported upstream type into a provider.Registry.
package providers

import (
	"github.com/vaultid/devserver/internal/provider"
	"github.com/vaultid/devserver/internal/provider/groq"
	"github.com/vaultid/devserver/internal/provider/openai"
	"github.com/vaultid/devserver/internal/provider/openailike"
)

// TypeOpenAICompatible is any other chat/completions endpoint; base_url is required.
const TypeOpenAICompatible = "openai_compatible"

// ProviderFactories maps provider type names to their factory functions.
var ProviderFactories = map[string]provider.ProviderFactory{
	groq.ProviderName:    groq.New,
	openai.ProviderName:  openai.New,
	TypeOpenAICompatible: newCompatible,
}

// NewRegistry returns a registry with every factory registered.
func NewRegistry() *provider.Registry {
	r := provider.NewRegistry()
	for name, factory := range ProviderFactories {
		r.RegisterFactory(name, factory)
	}
	return r
}

func newCompatible(cfg provider.ProviderConfig) (provider.Provider, error) {
	name := cfg.Name
	if name == "" {
		name = TypeOpenAICompatible
	}
	return openailike.New(cfg, openailike.ProviderInfo{
		Name:        name,
		DisplayName: name,
	})
}

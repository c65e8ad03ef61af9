package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps provider types to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]ProviderFactory),
	}
}

// RegisterFactory registers a factory function for a provider type.
func (r *Registry) RegisterFactory(providerType string, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[providerType] = factory
}

// CreateProvider builds a provider for cfg.Type. The base URL is validated first.
func (r *Registry) CreateProvider(cfg ProviderConfig) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider type: %s (known: %v)", cfg.Type, r.Types())
	}

	if cfg.BaseURL != "" {
		if err := ValidateBaseURL(cfg.BaseURL, cfg.AllowPrivateBaseURL); err != nil {
			return nil, fmt.Errorf("provider %s: %w", cfg.Name, err)
		}
	}

	p, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("create provider %s: %w", cfg.Name, err)
	}
	return p, nil
}

// Types returns the registered provider types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

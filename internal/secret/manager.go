package secret

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Manager handles multiple secret providers and routes requests based on URI schemes.
type Manager struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

// NewManager creates a new secret manager.
func NewManager() *Manager {
	return &Manager{
		providers: make(map[string]Provider),
	}
}

// Register registers a provider for a specific scheme (e.g., "vault", "env").
func (m *Manager) Register(scheme string, provider Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[scheme] = provider
}

// Get retrieves a secret by parsing the reference scheme.
// A reference without a scheme is returned as-is (static secret).
func (m *Manager) Get(ctx context.Context, ref string) (string, error) {
	scheme, path, ok := strings.Cut(ref, "://")
	if !ok {
		return ref, nil
	}

	m.mu.RLock()
	provider, ok := m.providers[scheme]
	m.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("no secret provider registered for scheme: %s", scheme)
	}

	return provider.Get(ctx, path)
}

// Resolve is Get with surrounding whitespace trimmed and ErrNotFound mapped
// to an empty value.
func (m *Manager) Resolve(ctx context.Context, ref string) (string, error) {
	val, err := m.Get(ctx, strings.TrimSpace(ref))
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(val), nil
}

// Close closes all registered providers.
func (m *Manager) Close() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	schemes := make([]string, 0, len(m.providers))
	for scheme := range m.providers {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)

	var errs []error
	for _, scheme := range schemes {
		if err := m.providers[scheme].Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", scheme, err))
		}
	}
	return errors.Join(errs...)
}

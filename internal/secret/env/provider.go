// Package env implements a secret provider that reads from environment variables.
package env

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/vaultid/devserver/internal/secret"
)

// Provider implements the secret.Provider interface for environment variables.
type Provider struct {
	lookup func(string) (string, bool)
}

// New creates a new Env provider.
func New() *Provider {
	return &Provider{lookup: os.LookupEnv}
}

// Get returns the variable named by path. Unset and blank variables both
// report secret.ErrNotFound.
func (p *Provider) Get(_ context.Context, path string) (string, error) {
	val, ok := p.lookup(path)
	if !ok || strings.TrimSpace(val) == "" {
		return "", fmt.Errorf("environment variable %q: %w", path, secret.ErrNotFound)
	}
	return val, nil
}

// Close is a no-op for the Env provider.
func (p *Provider) Close() error {
	return nil
}

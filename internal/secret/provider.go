// Package secret resolves credential references such as env://GROQ_API_KEY or
// vault://secret/data/groq#api_key to their values.
package secret

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a reference points at nothing. It is not a
// configuration error: the server runs without a credential instead.
var ErrNotFound = errors.New("secret not found")

// Provider defines the interface for retrieving secrets from various sources.
type Provider interface {
	// Get retrieves the secret value for the given path (the part after "scheme://").
	Get(ctx context.Context, path string) (string, error)

	// Close releases any resources held by the provider.
	Close() error
}

// Package vault implements a secret provider that reads from HashiCorp Vault.
package vault

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	vault "github.com/hashicorp/vault/api"

	"github.com/vaultid/devserver/internal/secret"
)

// DefaultKey is read when a reference has no #key suffix.
const DefaultKey = "value"

// Provider implements the secret.Provider interface for HashiCorp Vault.
type Provider struct {
	client    *vault.Client
	logger    *slog.Logger
	stopCh    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Config holds configuration for the Vault provider.
type Config struct {
	Address    string
	AuthMethod string // "approle", "cert"
	RoleID     string
	SecretID   string
	CACert     string
	ClientCert string
	ClientKey  string
}

// New logs in to Vault and starts renewing the resulting token.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	vConfig := vault.DefaultConfig()
	vConfig.Address = cfg.Address

	if cfg.ClientCert != "" || cfg.ClientKey != "" || cfg.CACert != "" {
		tlsConfig := &vault.TLSConfig{
			ClientCert: cfg.ClientCert,
			ClientKey:  cfg.ClientKey,
			CACert:     cfg.CACert,
		}
		if err := vConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("configure tls: %w", err)
		}
	}

	client, err := vault.NewClient(vConfig)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}

	auth, err := login(ctx, client, cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(auth.ClientToken)

	p := newProvider(client, logger)
	p.wg.Add(1)
	go p.startTokenRenewer(auth)

	return p, nil
}

func newProvider(client *vault.Client, logger *slog.Logger) *Provider {
	return &Provider{
		client: client,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

func login(ctx context.Context, client *vault.Client, cfg Config) (*vault.SecretAuth, error) {
	method := cfg.AuthMethod
	if method == "" && cfg.RoleID != "" {
		method = "approle"
	}

	var (
		resp *vault.Secret
		err  error
	)
	switch method {
	case "cert":
		resp, err = client.Logical().WriteWithContext(ctx, "auth/cert/login", nil)
	case "approle":
		resp, err = client.Logical().WriteWithContext(ctx, "auth/approle/login", map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
	default:
		return nil, fmt.Errorf("unknown or missing vault auth method: %q", cfg.AuthMethod)
	}
	if err != nil {
		return nil, fmt.Errorf("vault login (%s): %w", method, err)
	}
	if resp == nil || resp.Auth == nil {
		return nil, fmt.Errorf("vault login returned no auth info")
	}
	return resp.Auth, nil
}

// Get retrieves a secret from Vault.
// Path format: "path/to/secret#key". If #key is omitted, DefaultKey is read.
func (p *Provider) Get(ctx context.Context, path string) (string, error) {
	secretPath, key := path, DefaultKey
	if idx := strings.LastIndex(path, "#"); idx != -1 {
		secretPath, key = path[:idx], path[idx+1:]
	}

	resp, err := p.client.Logical().ReadWithContext(ctx, secretPath)
	if err != nil {
		return "", fmt.Errorf("read vault secret %q: %w", secretPath, err)
	}
	if resp == nil || resp.Data == nil {
		return "", fmt.Errorf("vault secret %q: %w", secretPath, secret.ErrNotFound)
	}

	// KV v2 nests the payload under "data".
	data := resp.Data
	if v, ok := data["data"]; ok {
		if nested, ok := v.(map[string]interface{}); ok {
			data = nested
		}
	}

	val, ok := data[key]
	if !ok || val == nil {
		return "", fmt.Errorf("key %q in vault secret %q: %w", key, secretPath, secret.ErrNotFound)
	}
	return fmt.Sprintf("%v", val), nil
}

// Close stops the token renewer and releases resources.
func (p *Provider) Close() error {
	p.closeOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
	return nil
}

func (p *Provider) startTokenRenewer(auth *vault.SecretAuth) {
	defer p.wg.Done()

	if !auth.Renewable {
		return
	}

	watcher, err := p.client.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
		Secret: &vault.Secret{Auth: auth},
	})
	if err != nil {
		p.logger.Error("failed to create vault lifetime watcher", "error", err)
		return
	}

	go watcher.Start()
	defer watcher.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case err := <-watcher.DoneCh():
			if err != nil {
				p.logger.Warn("vault token renewal stopped", "error", err)
			}
			return
		case <-watcher.RenewCh():
			p.logger.Debug("vault token renewed")
		}
	}
}

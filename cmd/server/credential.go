package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vaultid/devserver/internal/config"
	"github.com/vaultid/devserver/internal/secret"
	"github.com/vaultid/devserver/internal/secret/env"
	"github.com/vaultid/devserver/internal/secret/vault"
)

type keyPrompter interface {
	Interactive() bool
	PromptAPIKey(providerName string) (string, error)
}

// newSecretManager registers env:// always and vault:// when an address is set.
func newSecretManager(ctx context.Context, cfg config.SecretsConfig, logger *slog.Logger) (*secret.Manager, error) {
	m := secret.NewManager()
	m.Register("env", env.New())

	if cfg.Vault.Address != "" {
		p, err := vault.New(ctx, vault.Config{
			Address:    cfg.Vault.Address,
			AuthMethod: cfg.Vault.AuthMethod,
			RoleID:     cfg.Vault.RoleID,
			SecretID:   cfg.Vault.SecretID,
			CACert:     cfg.Vault.CACert,
			ClientCert: cfg.Vault.ClientCert,
			ClientKey:  cfg.Vault.ClientKey,
		}, logger)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("init vault: %w", err)
		}
		m.Register("vault", p)
		logger.Info("vault secret backend enabled", "address", cfg.Vault.Address)
	}
	return m, nil
}

// resolveAPIKey resolves the configured reference once. When it yields
// nothing and prompting is allowed on a terminal, the operator is asked.
// An empty key is not an error: the server runs and extraction answers 503.
func resolveAPIKey(ctx context.Context, secrets *secret.Manager, u config.UpstreamConfig, prompter keyPrompter, displayName string) (string, error) {
	key, err := secrets.Resolve(ctx, u.APIKey)
	if err != nil {
		return "", fmt.Errorf("resolve upstream.api_key: %w", err)
	}
	if key != "" || !u.PromptForKey || prompter == nil || !prompter.Interactive() {
		return key, nil
	}
	return prompter.PromptAPIKey(displayName)
}

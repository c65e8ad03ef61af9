package main

import (
	"log/slog"

	"github.com/vaultid/devserver/internal/config"
	"github.com/vaultid/devserver/internal/extract"
	"github.com/vaultid/devserver/internal/observability"
)

// extractOptions maps the reloadable part of the upstream config.
func extractOptions(u config.UpstreamConfig) extract.Options {
	return extract.Options{
		Model:               u.Model,
		Temperature:         u.Temperature,
		MaxCompletionTokens: u.MaxCompletionTokens,
		Timeout:             u.Timeout,
		DefaultMimeType:     u.DefaultMimeType,
		DefaultPrompt:       u.DefaultPrompt,
		MaxResponseBytes:    u.MaxResponseBytes,
	}
}

type optionsSetter interface {
	SetOptions(extract.Options)
}

// optionsReloader applies config changes that are safe to take live: the
// extraction options and the log level. The provider, credential and listen
// address need a restart.
type optionsReloader struct {
	logger  *slog.Logger
	target  optionsSetter
	level   *slog.LevelVar
	current *config.Config
}

func newOptionsReloader(logger *slog.Logger, target optionsSetter, level *slog.LevelVar, current *config.Config) *optionsReloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &optionsReloader{logger: logger, target: target, level: level, current: current}
}

func (r *optionsReloader) Reload(cfg *config.Config) {
	if cfg == nil {
		return
	}

	r.target.SetOptions(extractOptions(cfg.Upstream))
	if r.level != nil {
		r.level.Set(observability.ParseLevel(cfg.Logging.Level))
	}

	if prev := r.current; prev != nil {
		if prev.Upstream.Provider != cfg.Upstream.Provider ||
			prev.Upstream.BaseURL != cfg.Upstream.BaseURL ||
			prev.Upstream.APIKey != cfg.Upstream.APIKey {
			r.logger.Warn("upstream provider, base_url or api_key changed; restart to apply")
		}
		if prev.Server.Addr() != cfg.Server.Addr() || prev.Server.PublicDir != cfg.Server.PublicDir {
			r.logger.Warn("server address or public_dir changed; restart to apply")
		}
	}
	r.current = cfg

	r.logger.Info("extraction options reloaded",
		"model", cfg.Upstream.Model,
		"max_completion_tokens", cfg.Upstream.MaxCompletionTokens,
		"timeout", cfg.Upstream.Timeout,
	)
}

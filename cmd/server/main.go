// Package main is the entry point for the VaultID dev server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/vaultid/devserver/internal/api"
	"github.com/vaultid/devserver/internal/config"
	"github.com/vaultid/devserver/internal/console"
	"github.com/vaultid/devserver/internal/extract"
	"github.com/vaultid/devserver/internal/observability"
	"github.com/vaultid/devserver/internal/provider"
	"github.com/vaultid/devserver/internal/provider/providers"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file (optional)")
	noBrowser := flag.Bool("no-browser", false, "do not open a browser on start")
	flag.Parse()

	if err := run(*configPath, *noBrowser); err != nil {
		fmt.Fprintf(os.Stderr, "vaultid: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, noBrowser bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfgManager, err := config.NewManager(configPath, nil)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	defer cfgManager.Close()
	cfg := cfgManager.Get()

	level := new(slog.LevelVar)
	level.Set(observability.ParseLevel(cfg.Logging.Level))
	redactor := observability.NewRedactor()
	logger := observability.NewLogger(observability.LoggerConfig{
		Level:      level,
		Output:     os.Stdout,
		JSONFormat: strings.EqualFold(cfg.Logging.Format, "json"),
	}, redactor)
	slog.SetDefault(logger)
	cfgManager.SetLogger(logger)

	if status := cfgManager.Status(); status.FromFile {
		logger.Info("configuration loaded", "path", status.Path)
	} else {
		logger.Info("no configuration file, using defaults", "path", status.Path)
	}

	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRate:  cfg.Tracing.SampleRate,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("tracer shutdown error", "error", err)
		}
	}()

	// Build the provider once without a key so a bad config fails before
	// the operator is asked for anything.
	registry := providers.NewRegistry()
	provCfg := provider.ProviderConfig{
		Name:                cfg.Upstream.Provider,
		Type:                cfg.Upstream.Provider,
		BaseURL:             cfg.Upstream.BaseURL,
		AllowPrivateBaseURL: cfg.Upstream.AllowPrivateBaseURL,
		UserAgent:           cfg.Upstream.UserAgent,
		Headers:             cfg.Upstream.Headers,
	}
	probe, err := registry.CreateProvider(provCfg)
	if err != nil {
		return err
	}

	secrets, err := newSecretManager(ctx, cfg.Secrets, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := secrets.Close(); err != nil {
			logger.Warn("secret backend close error", "error", err)
		}
	}()

	term := console.New()
	term.Banner()
	apiKey, err := resolveAPIKey(ctx, secrets, cfg.Upstream, term, probe.DisplayName())
	if err != nil {
		return err
	}
	redactor.AddSecret(apiKey, "upstream_api_key")

	provCfg.APIKey = apiKey
	prov, err := registry.CreateProvider(provCfg)
	if err != nil {
		return err
	}

	svc, err := extract.NewService(extract.Config{
		Provider:      prov,
		HasCredential: apiKey != "",
		Options:       extractOptions(cfg.Upstream),
		Logger:        logger,
		Tracer:        tp.Tracer(),
	})
	if err != nil {
		return err
	}
	if !svc.HasCredential() {
		logger.Warn("no API key configured; /api/extract will answer 503", "api_key_ref", cfg.Upstream.APIKey)
	}

	reloader := newOptionsReloader(logger, svc, level, cfg)
	cfgManager.OnChange(reloader.Reload)
	if cfgManager.Status().FromFile {
		if err := cfgManager.Watch(ctx); err != nil {
			logger.Warn("config hot-reload disabled", "error", err)
		}
	}

	if _, err := os.Stat(cfg.Server.PublicDir); err != nil {
		logger.Warn("public directory not found; static files will 404", "dir", cfg.Server.PublicDir, "error", err)
	}

	handler := api.NewHandler(svc, logger, cfg.Upstream.MaxRequestBytes)
	mux, err := buildMux(cfg, handler)
	if err != nil {
		return err
	}
	middleware, err := buildMiddlewareStack(cfg, logger, redactor)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      middleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", server.Addr, err)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			"addr", ln.Addr().String(),
			"public_dir", cfg.Server.PublicDir,
			"provider", prov.Name(),
			"model", svc.Options().Model,
		)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	openBrowser := cfg.Server.OpenBrowser && !noBrowser
	term.Ready(cfg.Server.URL(), openBrowser)
	if openBrowser {
		openBrowserAfter(ctx, cfg.Server.URL(), cfg.Server.BrowserDelay, logger)
	}

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	term.Stopped()
	logger.Info("server stopped")
	return nil
}

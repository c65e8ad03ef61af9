package main

import (
	"log/slog"
	"net/http"

	"github.com/vaultid/devserver/internal/config"
	"github.com/vaultid/devserver/internal/metrics"
	"github.com/vaultid/devserver/internal/observability"
)

func buildMiddlewareStack(cfg *config.Config, logger *slog.Logger, redactor *observability.Redactor) (func(http.Handler) http.Handler, error) {
	if cfg == nil {
		return nil, errNilConfig
	}
	accessLog := observability.AccessLog(logger, redactor)

	return func(next http.Handler) http.Handler {
		if next == nil {
			return nil
		}
		// metrics must wrap the mux directly to see the matched pattern.
		handler := metrics.Middleware(next)
		handler = accessLog(handler)
		handler = observability.RequestIDMiddleware(handler)
		handler = corsMiddleware(cfg.CORS, handler)
		handler = noCacheMiddleware(handler)
		return handler
	}, nil
}

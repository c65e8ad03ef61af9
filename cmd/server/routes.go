package main

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vaultid/devserver/internal/config"
)

type dataHandler interface {
	Extract(http.ResponseWriter, *http.Request)
	NotFound(http.ResponseWriter, *http.Request)
	HealthCheck(http.ResponseWriter, *http.Request)
	Ready(http.ResponseWriter, *http.Request)
}

var errNilConfig = errors.New("config is required")

func buildMux(cfg *config.Config, handler dataHandler) (*http.ServeMux, error) {
	if cfg == nil {
		return nil, errNilConfig
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}

	mux := http.NewServeMux()

	// Extraction endpoint; the handler dispatches on method.
	mux.HandleFunc("/api/extract", handler.Extract)

	// Health endpoints
	mux.HandleFunc("GET /health/live", handler.HealthCheck)
	mux.HandleFunc("GET /health/ready", handler.Ready)

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.Handler())
	}

	// Static site. Kept method-less so it does not overlap /api/extract.
	mux.Handle("/", staticHandler(http.FileServer(http.Dir(cfg.Server.PublicDir)), handler.NotFound))

	return mux, nil
}

// staticHandler serves GET and HEAD from files and hands every other method
// to notFound.
func staticHandler(files http.Handler, notFound http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			files.ServeHTTP(w, r)
			return
		}
		notFound(w, r)
	})
}

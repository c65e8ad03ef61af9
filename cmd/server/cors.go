package main

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/vaultid/devserver/internal/config"
)

// corsMiddleware adds CORS headers to every response and answers any
// preflight with 204 before routing.
func corsMiddleware(cfg config.CORSConfig, next http.Handler) http.Handler {
	allowAll := slices.Contains(cfg.AllowOrigins, "*")
	allowMethods := strings.Join(cfg.AllowMethods, ", ")
	allowHeaders := strings.Join(cfg.AllowHeaders, ", ")
	exposeHeaders := strings.Join(cfg.ExposeHeaders, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowOrigin := ""
		if allowAll {
			allowOrigin = "*"
		} else if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Add("Vary", "Origin")
			if slices.Contains(cfg.AllowOrigins, origin) {
				allowOrigin = origin
			}
		}

		if allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			if exposeHeaders != "" {
				w.Header().Set("Access-Control-Expose-Headers", exposeHeaders)
			}
		}

		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if allowOrigin != "" {
			if allowMethods != "" {
				w.Header().Set("Access-Control-Allow-Methods", allowMethods)
			}
			if allowHeaders != "" {
				w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
			}
			if cfg.MaxAge > 0 {
				w.Header().Set("Access-Control-Max-Age", strconv.FormatInt(int64(cfg.MaxAge.Seconds()), 10))
			}
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

package observability

import (
	"log/slog"
	"net/http"
	"time"
)

type accessRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *accessRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *accessRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *accessRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// AccessLog logs one line per request. Successful reads of static assets are
// logged at debug so page loads do not drown out extraction traffic.
func AccessLog(logger *slog.Logger, redactor *Redactor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &accessRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}

			level := slog.LevelInfo
			if (r.Method == http.MethodGet || r.Method == http.MethodHead) && status < http.StatusBadRequest {
				level = slog.LevelDebug
			}
			if status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", rec.bytes,
				"duration", time.Since(start),
			}
			if redactor != nil && logger.Enabled(r.Context(), slog.LevelDebug) {
				attrs = append(attrs, "headers", redactor.RedactHeaders(r.Header))
			}
			WithRequestID(r.Context(), logger).Log(r.Context(), level, "request", attrs...)
		})
	}
}

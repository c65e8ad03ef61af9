// Package api provides the HTTP handlers of the dev server.
// It implements the extraction endpoint the VaultID frontend calls.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/vaultid/devserver/internal/httputil"
	"github.com/vaultid/devserver/internal/observability"
	llmerrors "github.com/vaultid/devserver/pkg/errors"
	"github.com/vaultid/devserver/pkg/types"
)

// Extractor performs one document extraction.
type Extractor interface {
	Extract(ctx context.Context, req types.ExtractionRequest) (*types.ExtractionResult, error)
	HasCredential() bool
}

// Handler handles HTTP requests for the extraction API.
type Handler struct {
	extractor    Extractor
	logger       *slog.Logger
	maxBodyBytes int64
}

// NewHandler creates a new API handler. maxBodyBytes <= 0 uses the default cap.
func NewHandler(extractor Extractor, logger *slog.Logger, maxBodyBytes int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = httputil.DefaultMaxRequestBodyBytes
	}
	return &Handler{
		extractor:    extractor,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
	}
}

// Extract handles /api/extract. OPTIONS answers the preflight, POST runs an
// extraction, anything else is refused.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		h.writeError(w, r, llmerrors.NewMethodNotAllowedError())
		return
	}

	// Checked before the body is read so a missing key answers fast.
	if !h.extractor.HasCredential() {
		h.writeError(w, r, llmerrors.NewMissingCredentialError())
		return
	}

	var req types.ExtractionRequest
	if err := httputil.DecodeJSONRequest(r, h.maxBodyBytes, &req); err != nil {
		h.writeError(w, r, llmerrors.NewInvalidRequestError(err.Error(), err))
		return
	}

	result, err := h.extractor.Extract(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// NotFound answers requests no route serves, such as a POST to a static path.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusNotFound, types.ErrorResponse{
		Error: types.ErrorDetail{Message: "Not found"},
	})
}

// HealthCheck handles GET /health/live.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /health/ready. Without an API key the server still serves
// files but cannot extract, so it reports 503.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.extractor.HasCredential() {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "no_credential"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *llmerrors.Error
	if !errors.As(err, &apiErr) {
		apiErr = llmerrors.NewInternalError("", "", err.Error(), err)
	}

	if apiErr.Type == llmerrors.TypeInvalidRequest {
		observability.WithRequestID(r.Context(), h.logger).Warn("rejected request", "error", apiErr.Message)
	}

	h.writeJSON(w, apiErr.HTTPStatusCode(), types.ErrorResponse{
		Error: types.ErrorDetail{Message: apiErr.Message},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Debug("write response failed", "error", err)
	}
}

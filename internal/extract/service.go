// Package extract turns a document image into structured JSON by asking a
// vision-capable chat-completion API and normalizing its reply.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vaultid/devserver/internal/httputil"
	"github.com/vaultid/devserver/internal/metrics"
	"github.com/vaultid/devserver/internal/observability"
	"github.com/vaultid/devserver/internal/provider"
	llmerrors "github.com/vaultid/devserver/pkg/errors"
	"github.com/vaultid/devserver/pkg/types"
)

// Defaults for Options.
const (
	DefaultMimeType            = "image/jpeg"
	DefaultPrompt              = "Extract all fields from this identity document as JSON."
	DefaultTimeout             = 90 * time.Second
	DefaultMaxCompletionTokens = 1024
)

// Options are the tunables of one extraction. They can be swapped at runtime.
type Options struct {
	// Model overrides the provider default when set.
	Model               string
	Temperature         float64
	MaxCompletionTokens int
	Timeout             time.Duration
	DefaultMimeType     string
	DefaultPrompt       string
	MaxResponseBytes    int64
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Temperature:         0,
		MaxCompletionTokens: DefaultMaxCompletionTokens,
		Timeout:             DefaultTimeout,
		DefaultMimeType:     DefaultMimeType,
		DefaultPrompt:       DefaultPrompt,
		MaxResponseBytes:    httputil.DefaultMaxResponseBodyBytes,
	}
}

// Config wires a Service.
type Config struct {
	Provider provider.Provider

	// HasCredential is false when startup resolved no API key. Every
	// extraction then fails fast without contacting the upstream.
	HasCredential bool

	Options    Options
	HTTPClient *http.Client
	Logger     *slog.Logger
	Tracer     trace.Tracer
}

// Service performs extractions against one upstream provider.
type Service struct {
	provider      provider.Provider
	hasCredential bool
	opts          atomic.Pointer[Options]
	client        *http.Client
	logger        *slog.Logger
	tracer        trace.Tracer
}

// NewService creates a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Provider == nil {
		return nil, errors.New("extract: provider is required")
	}

	s := &Service{
		provider:      cfg.Provider,
		hasCredential: cfg.HasCredential,
		client:        cfg.HTTPClient,
		logger:        cfg.Logger,
		tracer:        cfg.Tracer,
	}
	if s.client == nil {
		s.client = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(observability.TracerName)
	}
	s.SetOptions(cfg.Options)
	return s, nil
}

// SetOptions replaces the options used by subsequent extractions. Zero
// fields fall back to DefaultOptions.
func (s *Service) SetOptions(opts Options) {
	def := DefaultOptions()
	if opts.MaxCompletionTokens <= 0 {
		opts.MaxCompletionTokens = def.MaxCompletionTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.DefaultMimeType == "" {
		opts.DefaultMimeType = def.DefaultMimeType
	}
	if opts.DefaultPrompt == "" {
		opts.DefaultPrompt = def.DefaultPrompt
	}
	if opts.MaxResponseBytes <= 0 {
		opts.MaxResponseBytes = def.MaxResponseBytes
	}
	s.opts.Store(&opts)
}

// Options returns the current options.
func (s *Service) Options() Options {
	return *s.opts.Load()
}

// HasCredential reports whether an API key was resolved at startup.
func (s *Service) HasCredential() bool {
	return s.hasCredential
}

// Provider returns the upstream provider.
func (s *Service) Provider() provider.Provider {
	return s.provider
}

// Extract sends the document to the upstream and returns its reply as compact
// JSON. Failures are *errors.Error values carrying the status to answer with.
//
// The upstream call is detached from ctx cancellation so a client that goes
// away does not abort it. It is bounded by Options.Timeout only.
func (s *Service) Extract(ctx context.Context, req types.ExtractionRequest) (*types.ExtractionResult, error) {
	name := s.provider.Name()
	if !s.hasCredential {
		metrics.RecordError(name, llmerrors.TypeMissingCredential)
		return nil, llmerrors.NewMissingCredentialError()
	}

	opts := s.Options()
	model := opts.Model
	if model == "" {
		model = s.provider.DefaultModel()
	}
	req = req.WithDefaults(opts.DefaultMimeType, opts.DefaultPrompt)

	upstreamID := uuid.NewString()
	logger := observability.WithRequestID(ctx, s.logger).With(
		"upstream_id", upstreamID,
		"provider", name,
		"model", model,
	)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), opts.Timeout)
	defer cancel()

	ctx, span := observability.StartExtractSpan(ctx, s.tracer, observability.ExtractSpanAttributes{
		Provider:    name,
		Model:       model,
		MimeType:    req.MimeType,
		ImageBytes:  len(req.Data64),
		MaxTokens:   opts.MaxCompletionTokens,
		Temperature: opts.Temperature,
	})
	defer span.End()

	fail := func(err *llmerrors.Error) (*types.ExtractionResult, error) {
		observability.RecordError(span, err)
		metrics.RecordError(name, err.Type)
		return nil, err
	}

	chatReq, err := BuildChatRequest(req, model, opts)
	if err != nil {
		return fail(llmerrors.NewInternalError(name, model, err.Error(), err))
	}
	httpReq, err := s.provider.BuildRequest(ctx, chatReq)
	if err != nil {
		return fail(llmerrors.NewInternalError(name, model, fmt.Sprintf("build request: %v", err), err))
	}

	logger.Debug("calling upstream", "mime_type", req.MimeType, "image_base64_bytes", len(req.Data64))

	start := time.Now()
	resp, err := s.client.Do(httpReq)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("upstream request timed out after %s", opts.Timeout)
		}
		logger.Error("upstream request failed", "error", err, "latency", time.Since(start))
		return fail(llmerrors.NewInternalError(name, model, msg, err))
	}
	defer resp.Body.Close()

	body, err := httputil.ReadLimited(resp.Body, opts.MaxResponseBytes)
	latency := time.Since(start)
	metrics.RecordUpstream(name, model, resp.StatusCode, latency)
	if err != nil {
		logger.Error("read upstream response failed", "status", resp.StatusCode, "error", err)
		return fail(llmerrors.NewInternalError(name, model, fmt.Sprintf("read upstream response: %v", err), err))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		mapped := s.provider.MapError(resp.StatusCode, body)
		var upstreamErr *llmerrors.Error
		if !errors.As(mapped, &upstreamErr) {
			upstreamErr = llmerrors.NewUpstreamError(resp.StatusCode, s.provider.DisplayName(), name, model, mapped.Error())
		}
		upstreamErr.Model = model
		logger.Error("upstream returned error",
			"status", resp.StatusCode,
			"message", upstreamErr.Message,
			"latency", latency,
		)
		return fail(upstreamErr)
	}

	chatResp, err := s.provider.ParseResponse(body)
	if err != nil {
		return fail(llmerrors.NewInternalError(name, model, fmt.Sprintf("parse upstream response: %v", err), err))
	}

	content, ok, err := chatResp.FirstContent()
	if err != nil {
		return fail(llmerrors.NewInternalError(name, model, fmt.Sprintf("read message content: %v", err), err))
	}
	if !ok {
		return fail(llmerrors.NewInternalError(name, model, "upstream returned no choices", nil))
	}

	var inputTokens, outputTokens int
	if chatResp.Usage != nil {
		inputTokens = chatResp.Usage.PromptTokens
		outputTokens = chatResp.Usage.CompletionTokens
		metrics.RecordTokens(name, model, inputTokens, outputTokens)
	}
	observability.RecordUsage(span, resp.StatusCode, inputTokens, outputTokens, chatResp.Choices[0].FinishReason)

	text, err := Normalize(content)
	if err != nil {
		logger.Warn("model reply is not valid JSON", "error", err, "reply_bytes", len(content))
		return fail(llmerrors.NewInvalidModelJSONError(name, model, err))
	}

	logger.Info("extraction complete",
		"latency", latency,
		"input_tokens", inputTokens,
		"output_tokens", outputTokens,
		"result_bytes", len(text),
	)
	return types.NewExtractionResult(text), nil
}

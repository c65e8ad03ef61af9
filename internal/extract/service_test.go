package extract

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultid/devserver/internal/provider"
	"github.com/vaultid/devserver/internal/provider/groq"
	llmerrors "github.com/vaultid/devserver/pkg/errors"
	"github.com/vaultid/devserver/pkg/types"
)

const testKey = "gsk_testkeytestkeytestkeytestkey"

func chatCompletion(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 900, "completion_tokens": 40, "total_tokens": 940},
	})
	return string(body)
}

func newTestService(t *testing.T, handler http.HandlerFunc, hasCredential bool, opts Options) *Service {
	t.Helper()

	upstream := httptest.NewServer(handler)
	t.Cleanup(upstream.Close)

	p, err := groq.New(provider.ProviderConfig{
		Name:      "groq",
		APIKey:    testKey,
		BaseURL:   upstream.URL,
		UserAgent: "Mozilla/5.0 test",
	})
	require.NoError(t, err)

	svc, err := NewService(Config{
		Provider:      p,
		HasCredential: hasCredential,
		Options:       opts,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return svc
}

func asError(t *testing.T, err error) *llmerrors.Error {
	t.Helper()
	var e *llmerrors.Error
	require.True(t, stderrors.As(err, &e), "want *errors.Error, got %T: %v", err, err)
	return e
}

func TestExtract_Success(t *testing.T) {
	var got struct {
		auth, userAgent string
		body            types.ChatRequest
	}
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		got.auth = r.Header.Get("Authorization")
		got.userAgent = r.Header.Get("User-Agent")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got.body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatCompletion(`{"name":"Jane"}`))
	}, true, Options{})

	res, err := svc.Extract(context.Background(), types.ExtractionRequest{Data64: "AAAA"})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	assert.Equal(t, "text", res.Content[0].Type)
	assert.Equal(t, `{"name":"Jane"}`, res.Content[0].Text)

	assert.Equal(t, "Bearer "+testKey, got.auth)
	assert.Equal(t, "Mozilla/5.0 test", got.userAgent)
	assert.Equal(t, groq.DefaultModel, got.body.Model)

	parts, err := got.body.Messages[0].Parts()
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, DefaultPrompt, parts[0].Text)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", parts[1].ImageURL.URL)
}

func TestExtract_FencedReply(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, chatCompletion("```json\n{\"a\":1}\n```"))
	}, true, Options{})

	res, err := svc.Extract(context.Background(), types.ExtractionRequest{})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, res.Content[0].Text)
}

func TestExtract_InvalidModelJSON(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, chatCompletion("I could not read the document."))
	}, true, Options{})

	_, err := svc.Extract(context.Background(), types.ExtractionRequest{})
	e := asError(t, err)
	assert.Equal(t, http.StatusInternalServerError, e.HTTPStatusCode())
	assert.Equal(t, llmerrors.TypeInvalidModelJSON, e.Type)
	assert.True(t, strings.HasPrefix(e.Message, "AI returned invalid JSON: "), e.Message)
}

func TestExtract_UpstreamError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"rate limited"}}`)
	}, true, Options{})

	_, err := svc.Extract(context.Background(), types.ExtractionRequest{})
	e := asError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, e.HTTPStatusCode())
	assert.Equal(t, "Groq API: rate limited", e.Message)
	assert.Equal(t, groq.DefaultModel, e.Model)
}

func TestExtract_MissingCredentialSkipsUpstream(t *testing.T) {
	var calls atomic.Int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}, false, Options{})

	_, err := svc.Extract(context.Background(), types.ExtractionRequest{})
	e := asError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, e.HTTPStatusCode())
	assert.Equal(t, "No API key.", e.Message)
	assert.Zero(t, calls.Load())
}

func TestExtract_NoChoices(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}, true, Options{})

	_, err := svc.Extract(context.Background(), types.ExtractionRequest{})
	e := asError(t, err)
	assert.Equal(t, http.StatusInternalServerError, e.HTTPStatusCode())
	assert.Contains(t, e.Message, "no choices")
}

func TestExtract_Timeout(t *testing.T) {
	release := make(chan struct{})
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, true, Options{Timeout: 50 * time.Millisecond})
	defer close(release)

	_, err := svc.Extract(context.Background(), types.ExtractionRequest{})
	e := asError(t, err)
	assert.Equal(t, http.StatusInternalServerError, e.HTTPStatusCode())
	assert.Contains(t, e.Message, "timed out")
}

func TestExtract_ClientCancelDoesNotAbortUpstream(t *testing.T) {
	started := make(chan struct{})
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		time.Sleep(100 * time.Millisecond)
		_, _ = io.WriteString(w, chatCompletion(`{"ok":true}`))
	}, true, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	res, err := svc.Extract(ctx, types.ExtractionRequest{})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, res.Content[0].Text)
}

func TestExtract_UsesSwappedOptions(t *testing.T) {
	var model atomic.Value
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req types.ChatRequest
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &req)
		model.Store(req.Model)
		_, _ = io.WriteString(w, chatCompletion(`{}`))
	}, true, Options{})

	svc.SetOptions(Options{Model: "custom-vision"})
	_, err := svc.Extract(context.Background(), types.ExtractionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "custom-vision", model.Load())
	assert.Equal(t, DefaultMaxCompletionTokens, svc.Options().MaxCompletionTokens)
}

func TestNewService_RequiresProvider(t *testing.T) {
	_, err := NewService(Config{})
	assert.Error(t, err)
}

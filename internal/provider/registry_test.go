package provider

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/vaultid/devserver/pkg/types"
)

type stubProvider struct{ cfg ProviderConfig }

func (s *stubProvider) Name() string         { return s.cfg.Name }
func (s *stubProvider) DisplayName() string  { return "Stub" }
func (s *stubProvider) DefaultModel() string { return "stub-model" }
func (s *stubProvider) BuildRequest(ctx context.Context, _ *types.ChatRequest) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, http.MethodPost, "http://stub.invalid", nil)
}
func (s *stubProvider) ParseResponse([]byte) (*types.ChatResponse, error) { return nil, nil }
func (s *stubProvider) MapError(int, []byte) error                     { return nil }

func TestRegistry_CreateProvider(t *testing.T) {
	r := NewRegistry()
	r.RegisterFactory("stub", func(cfg ProviderConfig) (Provider, error) {
		return &stubProvider{cfg: cfg}, nil
	})

	p, err := r.CreateProvider(ProviderConfig{Name: "primary", Type: "stub"})
	if err != nil {
		t.Fatalf("CreateProvider() error = %v", err)
	}
	if p.Name() != "primary" {
		t.Errorf("Name() = %q, want primary", p.Name())
	}
}

func TestRegistry_UnknownType(t *testing.T) {
	r := NewRegistry()
	r.RegisterFactory("stub", func(cfg ProviderConfig) (Provider, error) {
		return &stubProvider{cfg: cfg}, nil
	})

	_, err := r.CreateProvider(ProviderConfig{Name: "x", Type: "nope"})
	if err == nil || !strings.Contains(err.Error(), "unknown provider type") {
		t.Fatalf("error = %v, want unknown provider type", err)
	}
}

func TestRegistry_RejectsPrivateBaseURL(t *testing.T) {
	r := NewRegistry()
	r.RegisterFactory("stub", func(cfg ProviderConfig) (Provider, error) {
		return &stubProvider{cfg: cfg}, nil
	})

	if _, err := r.CreateProvider(ProviderConfig{Name: "x", Type: "stub", BaseURL: "http://127.0.0.1:9999"}); err == nil {
		t.Fatal("expected loopback base URL to be rejected")
	}
	if _, err := r.CreateProvider(ProviderConfig{Name: "x", Type: "stub", BaseURL: "http://127.0.0.1:9999", AllowPrivateBaseURL: true}); err != nil {
		t.Fatalf("allow_private_base_url should accept loopback: %v", err)
	}
}

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"https://api.groq.com/openai/v1", false},
		{"ftp://api.groq.com", true},
		{"https://user:pw@api.groq.com", true},
		{"https://api.groq.com/v1?x=1", true},
		{"https://localhost:8080", true},
		{"https://10.0.0.4", true},
		{"https://", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			err := ValidateBaseURL(tt.raw, false)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBaseURL(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeModelLabel_KeepsOrgPrefix(t *testing.T) {
	got := sanitizeModelLabel("meta-llama/llama-4-scout-17b-16e-instruct")
	if got != "meta-llama/llama-4-scout-17b-16e-instruct" {
		t.Fatalf("sanitizeModelLabel = %q", got)
	}
}

func TestSanitizeModelLabel_ReplacesInvalidChars(t *testing.T) {
	got := sanitizeModelLabel("llama\n\t🚨")
	if strings.ContainsAny(got, "\n\t") {
		t.Fatalf("sanitizeModelLabel contains whitespace: %q", got)
	}
	if got != "llama" {
		t.Fatalf("sanitizeModelLabel = %q, want %q", got, "llama")
	}
}

func TestSanitizeModelLabel_CapsLength(t *testing.T) {
	long := strings.Repeat("a", maxModelLabelLen+50)
	if got := sanitizeModelLabel(long); len(got) != maxModelLabelLen {
		t.Fatalf("sanitizeModelLabel len=%d, want %d", len(got), maxModelLabelLen)
	}
}

func TestSanitizeModelLabel_EmptyFallback(t *testing.T) {
	if got := sanitizeModelLabel("   "); got != "unknown" {
		t.Fatalf("sanitizeModelLabel = %q, want %q", got, "unknown")
	}
}

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/extract", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST /api/extract", "429"))

	rr := httptest.NewRecorder()
	Middleware(mux).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/extract", nil))

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST /api/extract", "429"))
	if after != before+1 {
		t.Fatalf("counter = %v, want %v", after, before+1)
	}
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	mux := http.NewServeMux()
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("unmatched", "404"))

	Middleware(mux).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("unmatched", "404")); got != before+1 {
		t.Fatalf("counter = %v, want %v", got, before+1)
	}
}

func TestRecordUpstreamAndTokens(t *testing.T) {
	before := testutil.ToFloat64(UpstreamRequestsTotal.WithLabelValues("groq", "m", "200"))
	RecordUpstream("groq", "m", http.StatusOK, 150*time.Millisecond)
	if got := testutil.ToFloat64(UpstreamRequestsTotal.WithLabelValues("groq", "m", "200")); got != before+1 {
		t.Fatalf("upstream counter = %v", got)
	}

	inBefore := testutil.ToFloat64(TokenUsage.WithLabelValues("groq", "m", "input"))
	RecordTokens("groq", "m", 12, 0)
	if got := testutil.ToFloat64(TokenUsage.WithLabelValues("groq", "m", "input")); got != inBefore+12 {
		t.Fatalf("input tokens = %v", got)
	}
}

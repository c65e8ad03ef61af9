package observability

import (
	"regexp"
	"strings"
	"sync"
)

// Redactor masks credentials and document data in log output. It is safe
// for concurrent use; patterns may be added while loggers are running.
type Redactor struct {
	mu       sync.RWMutex
	patterns []redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// defaultPatterns run in order; longer key prefixes come first.
var defaultPatterns = []struct{ name, expr, replacement string }{
	{"groq_key", `gsk_[a-zA-Z0-9]{20,}`, "[REDACTED_GROQ_KEY]"},
	{"openai_project_key", `sk-proj-[a-zA-Z0-9\-_]{20,}`, "[REDACTED_OPENAI_PROJECT_KEY]"},
	{"openai_key", `sk-[a-zA-Z0-9]{20,}`, "[REDACTED_OPENAI_KEY]"},
	{"vault_token", `hvs\.[a-zA-Z0-9\-_]{20,}`, "[REDACTED_VAULT_TOKEN]"},
	{"bearer_token", `Bearer\s+[a-zA-Z0-9\-_\.]+`, "Bearer [REDACTED]"},
	{"auth_header", `Authorization:\s*[^\s]+`, "Authorization: [REDACTED]"},
	// Data URIs carry whole document scans.
	{"data_uri", `data:[a-zA-Z0-9.+/-]+;base64,[a-zA-Z0-9+/=]+`, "[REDACTED_DATA_URI]"},
	// Fields an identity document extraction can echo back.
	{"email", `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, "[REDACTED_EMAIL]"},
	{"credit_card", `\b[0-9]{4}[-\s]?[0-9]{4}[-\s]?[0-9]{4}[-\s]?[0-9]{4}\b`, "[REDACTED_CARD]"},
	{"ssn", `\b[0-9]{3}-[0-9]{2}-[0-9]{4}\b`, "[REDACTED_SSN]"},
	{"phone", `\+?[0-9]{1,3}[-.\s]?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}`, "[REDACTED_PHONE]"},
}

// NewRedactor returns a Redactor loaded with the default patterns.
func NewRedactor() *Redactor {
	r := &Redactor{}
	for _, p := range defaultPatterns {
		r.AddPattern(p.expr, p.replacement, p.name)
	}
	return r
}

// AddPattern registers an extra pattern. Invalid expressions are ignored.
func (r *Redactor) AddPattern(pattern, replacement, name string) {
	regex, err := regexp.Compile(pattern)
	if err != nil {
		return
	}
	r.mu.Lock()
	r.patterns = append(r.patterns, redactPattern{name: name, regex: regex, replacement: replacement})
	r.mu.Unlock()
}

// AddSecret masks an exact value, such as a credential resolved at startup.
func (r *Redactor) AddSecret(secret, name string) {
	if strings.TrimSpace(secret) == "" {
		return
	}
	r.AddPattern(regexp.QuoteMeta(secret), "[REDACTED]", name)
}

// Redact applies every pattern to input.
func (r *Redactor) Redact(input string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.patterns {
		input = p.regex.ReplaceAllString(input, p.replacement)
	}
	return input
}

var sensitiveHeaders = map[string]bool{
	"authorization":  true,
	"x-api-key":      true,
	"api-key":        true,
	"x-vault-token":  true,
	"cookie":         true,
	"set-cookie":     true,
	"x-groq-api-key": true,
}

// RedactHeaders returns a copy of headers with credential-bearing values masked.
func (r *Redactor) RedactHeaders(headers map[string][]string) map[string][]string {
	out := make(map[string][]string, len(headers))
	for k, v := range headers {
		if sensitiveHeaders[strings.ToLower(k)] {
			v = []string{"[REDACTED]"}
		}
		out[k] = v
	}
	return out
}

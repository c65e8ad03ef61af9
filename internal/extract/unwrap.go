package extract

import (
	"bytes"
	"strings"

	"github.com/goccy/go-json"
)

const fence = "```"

// UnwrapFence strips a Markdown code fence from a model reply. When the reply
// contains a fence, the text between the first two fences is kept and a
// leading "json" language tag is dropped.
func UnwrapFence(content string) string {
	text := strings.TrimSpace(content)
	if !strings.Contains(text, fence) {
		return text
	}
	text = strings.Split(text, fence)[1]
	text = strings.TrimPrefix(text, "json")
	return strings.TrimSpace(text)
}

// CanonicalJSON validates text as a single JSON value and returns it compacted
// with object keys in their original order.
func CanonicalJSON(text string) (string, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(text)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Normalize turns a model reply into compact JSON. If the unwrapped reply is
// not valid JSON, the first balanced object or array inside it is tried. The
// returned error is the parse failure of the unwrapped reply.
func Normalize(content string) (string, error) {
	text := UnwrapFence(content)
	out, err := CanonicalJSON(text)
	if err == nil {
		return out, nil
	}
	if candidate, ok := firstBalanced(text); ok && candidate != text {
		if out, cerr := CanonicalJSON(candidate); cerr == nil {
			return out, nil
		}
	}
	return "", err
}

// firstBalanced returns the first {...} or [...] span whose brackets balance,
// ignoring brackets inside string literals.
func firstBalanced(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// Package httputil reads request and upstream bodies with size caps.
package httputil

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
)

const (
	// DefaultMaxRequestBodyBytes caps /api/extract bodies. Base64 images inflate by a third.
	DefaultMaxRequestBodyBytes int64 = 20 * 1024 * 1024

	// DefaultMaxResponseBodyBytes caps upstream response bodies.
	DefaultMaxResponseBodyBytes int64 = 10 * 1024 * 1024
)

// ErrBodyTooLarge is returned when a body exceeds its cap.
var ErrBodyTooLarge = errors.New("body too large")

// ReadLimited reads at most maxBytes from reader. When the body is longer, the
// first maxBytes are returned together with ErrBodyTooLarge. maxBytes <= 0 disables the cap.
func ReadLimited(reader io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(reader)
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxBytes+1))
	if err != nil {
		return body, err
	}
	if int64(len(body)) > maxBytes {
		return body[:maxBytes], ErrBodyTooLarge
	}
	return body, nil
}

// DecodeJSONRequest reads the request body under maxBytes and decodes it into v.
// An empty body decodes as an empty object.
func DecodeJSONRequest(r *http.Request, maxBytes int64, v any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	body, err := ReadLimited(r.Body, maxBytes)
	if err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			return fmt.Errorf("request body exceeds %d bytes: %w", maxBytes, err)
		}
		return fmt.Errorf("read request body: %w", err)
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

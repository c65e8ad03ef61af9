// Package types defines the wire formats exchanged with the frontend and the upstream API.
// Upstream types follow the OpenAI Chat Completion schema used by Groq.
package types //nolint:revive // package name is intentional

import (
	"fmt"

	"github.com/goccy/go-json"
)

// ChatRequest is an OpenAI-compatible chat completion request.
type ChatRequest struct {
	Model               string          `json:"model"`
	Messages            []ChatMessage   `json:"messages"`
	Temperature         *float64        `json:"temperature,omitempty"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
	ResponseFormat      *ResponseFormat `json:"response_format,omitempty"`
}

// ChatMessage is a single message. Content is either a JSON string or an
// array of content parts, so it is kept raw.
type ChatMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// ContentPart is one element of a multimodal message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL points at an image, here always an inline data URI.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// ResponseFormat specifies the output format for the model.
type ResponseFormat struct {
	Type string `json:"type"`
}

// Content part and response format identifiers.
const (
	ContentTypeText     = "text"
	ContentTypeImageURL = "image_url"

	ResponseFormatJSONObject = "json_object"

	RoleUser = "user"
)

// NewPartsMessage builds a message whose content is the given parts.
func NewPartsMessage(role string, parts ...ContentPart) (ChatMessage, error) {
	content, err := json.Marshal(parts)
	if err != nil {
		return ChatMessage{}, fmt.Errorf("marshal content parts: %w", err)
	}
	return ChatMessage{Role: role, Content: content}, nil
}

// Parts decodes array content. A plain string content is returned as one text part.
func (m ChatMessage) Parts() ([]ContentPart, error) {
	if len(m.Content) == 0 {
		return nil, nil
	}
	if m.Content[0] == '"' {
		text, err := m.Text()
		if err != nil {
			return nil, err
		}
		return []ContentPart{{Type: ContentTypeText, Text: text}}, nil
	}
	var parts []ContentPart
	if err := json.Unmarshal(m.Content, &parts); err != nil {
		return nil, fmt.Errorf("decode content parts: %w", err)
	}
	return parts, nil
}

// Text decodes string content. A null or missing content yields "".
func (m ChatMessage) Text() (string, error) {
	if len(m.Content) == 0 || string(m.Content) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(m.Content, &s); err != nil {
		return "", fmt.Errorf("message content is not a string: %w", err)
	}
	return s, nil
}

// Float64 returns a pointer to v, for optional sampling fields that must
// still be sent when zero.
func Float64(v float64) *float64 {
	return &v
}

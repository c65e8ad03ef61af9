package types //nolint:revive // package name is intentional

// ChatResponse is an OpenAI-compatible chat completion response.
// Only the first choice's message content is consumed.
type ChatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice represents a single completion choice.
type Choice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// Usage contains token usage statistics for the request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// FirstContent returns choices[0].message.content.
func (r *ChatResponse) FirstContent() (string, bool, error) {
	if r == nil || len(r.Choices) == 0 {
		return "", false, nil
	}
	text, err := r.Choices[0].Message.Text()
	if err != nil {
		return "", true, err
	}
	return text, true, nil
}

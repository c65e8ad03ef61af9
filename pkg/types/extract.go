package types //nolint:revive // package name is intentional

// ExtractionRequest is the body the frontend posts to /api/extract.
type ExtractionRequest struct {
	MimeType string `json:"mimeType"`
	Data64   string `json:"data64"`
	Prompt   string `json:"prompt"`
}

// WithDefaults fills an absent or empty mime type and prompt.
// An absent data64 stays empty.
func (r ExtractionRequest) WithDefaults(mimeType, prompt string) ExtractionRequest {
	if r.MimeType == "" {
		r.MimeType = mimeType
	}
	if r.Prompt == "" {
		r.Prompt = prompt
	}
	return r
}

// DataURI renders the image as data:<mime>;base64,<payload>.
func (r ExtractionRequest) DataURI() string {
	return "data:" + r.MimeType + ";base64," + r.Data64
}

// ExtractionResult is the success envelope. Text holds compact JSON.
type ExtractionResult struct {
	Content []ContentBlock `json:"content"`
}

// ContentBlock is one block of the success envelope.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewExtractionResult wraps a JSON document as a single text block.
func NewExtractionResult(jsonText string) *ExtractionResult {
	return &ExtractionResult{
		Content: []ContentBlock{{Type: ContentTypeText, Text: jsonText}},
	}
}

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes the error payload.
type ErrorDetail struct {
	Message string `json:"message"`
}

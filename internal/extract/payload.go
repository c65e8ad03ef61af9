package extract

import (
	"github.com/vaultid/devserver/pkg/types"
)

// BuildChatRequest embeds the document image and prompt in a single user
// message and asks for a JSON object reply.
func BuildChatRequest(req types.ExtractionRequest, model string, opts Options) (*types.ChatRequest, error) {
	msg, err := types.NewPartsMessage(types.RoleUser,
		types.ContentPart{Type: types.ContentTypeText, Text: req.Prompt},
		types.ContentPart{Type: types.ContentTypeImageURL, ImageURL: &types.ImageURL{URL: req.DataURI()}},
	)
	if err != nil {
		return nil, err
	}

	return &types.ChatRequest{
		Model:               model,
		Messages:            []types.ChatMessage{msg},
		Temperature:         types.Float64(opts.Temperature),
		MaxCompletionTokens: opts.MaxCompletionTokens,
		ResponseFormat:      &types.ResponseFormat{Type: types.ResponseFormatJSONObject},
	}, nil
}

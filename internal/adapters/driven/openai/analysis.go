package openai

import (
	"context"
	"encoding/base64"
	"fmt"
)

// analysisPrompt asks the vision model for a structured chart read.
const analysisPrompt = "Analyze this chart/figure and extract key insights. " +
	"Return a JSON object with 'title', 'key_insights', and 'data_points' fields."

// analysisMaxTokens bounds the vision reply.
const analysisMaxTokens = 1000

// Analyze submits a PNG figure image and returns the model's reply
// verbatim. The reply may be bare JSON or JSON wrapped in markdown
// fences; parsing is the caller's concern.
func (c *Client) Analyze(ctx context.Context, image []byte) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(image)

	messages := []chatCompletionMsg{
		{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: analysisPrompt},
				{
					Type: "image_url",
					ImageURL: &imageURL{
						URL: "data:image/png;base64," + encoded,
					},
				},
			},
		},
	}

	reply, err := c.chatCompletion(ctx, messages, analysisMaxTokens, 0)
	if err != nil {
		return "", fmt.Errorf("analyze figure: %w", err)
	}
	return reply, nil
}

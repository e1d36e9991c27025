package openai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/paperpost-cli/internal/core/ports/driven"
)

// generationMaxTokens bounds one drafting reply (N posts in one call).
const generationMaxTokens = 1500

// Generate runs one completion with a system and user prompt.
func (c *Client) Generate(
	ctx context.Context,
	system, prompt string,
	opts driven.GenerateOptions,
) (string, error) {
	messages := make([]chatCompletionMsg, 0, 2)
	if system != "" {
		messages = append(messages, chatCompletionMsg{Role: "system", Content: system})
	}
	messages = append(messages, chatCompletionMsg{Role: "user", Content: prompt})

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = generationMaxTokens
	}

	reply, err := c.chatCompletion(ctx, messages, maxTokens, opts.Temperature)
	if err != nil {
		return "", fmt.Errorf("generate posts: %w", err)
	}
	return reply, nil
}

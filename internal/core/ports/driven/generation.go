package driven

import "context"

// GenerateOptions controls a single generation request.
type GenerateOptions struct {
	// MaxTokens limits the completion length. Zero means the service
	// default.
	MaxTokens int

	// Temperature controls sampling randomness. Zero means the service
	// default.
	Temperature float64
}

// GenerationService produces free text from a prompt via the external
// text-generation collaborator. Replies contain N post segments
// separated by a literal marker string; splitting is the orchestrator's
// concern.
type GenerationService interface {
	// Generate runs one completion with a system and user prompt.
	Generate(ctx context.Context, system, prompt string, opts GenerateOptions) (string, error)
}

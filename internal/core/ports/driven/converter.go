package driven

import "context"

// DocumentConverter extracts the text of a source document. The text
// seeds the generation prompts with whole-document context.
// Conversion failures are fatal to the run.
type DocumentConverter interface {
	// Convert returns the extracted text of the document at path.
	Convert(ctx context.Context, path string) (string, error)
}

// Package pdf implements the document converter over rsc.io/pdf,
// extracting plain text from a PDF whitepaper to seed generation
// context. Layout fidelity is not a goal; prompts only need the prose.
package pdf

import (
	"context"
	"fmt"
	"strings"

	rpdf "rsc.io/pdf"

	"github.com/custodia-labs/paperpost-cli/internal/core/ports/driven"
)

// Ensure Converter implements the interface.
var _ driven.DocumentConverter = (*Converter)(nil)

// Converter extracts text from PDF documents.
type Converter struct{}

// New creates a PDF converter.
func New() *Converter {
	return &Converter{}
}

// Convert returns the concatenated text of all pages. Failures are
// fatal to the run: a document that cannot be read cannot seed
// generation context.
func (c *Converter) Convert(ctx context.Context, path string) (string, error) {
	doc, err := rpdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}

		content := page.Content()
		var lastY float64
		for _, text := range content.Text {
			// A Y jump starts a new line; same baseline keeps flowing.
			if lastY != 0 && text.Y != lastY {
				sb.WriteString("\n")
			}
			sb.WriteString(text.S)
			lastY = text.Y
		}
		sb.WriteString("\n\n")
	}

	return sb.String(), nil
}

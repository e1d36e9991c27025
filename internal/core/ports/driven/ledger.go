package driven

import (
	"context"

	"github.com/custodia-labs/paperpost-cli/internal/core/domain"
)

// ProcessingLedger is the durable record of which (document, figure)
// pairs have completed processing. It is the idempotency backbone:
// a figure with a processed row is never reprocessed. The ledger
// assumes a single writer process at a time.
type ProcessingLedger interface {
	// Unprocessed returns the sorted indices in [0, total) that have no
	// processed record for the document.
	Unprocessed(ctx context.Context, doc domain.DocumentID, total int) ([]int, error)

	// Processed returns the sorted indices already marked processed.
	Processed(ctx context.Context, doc domain.DocumentID) ([]int, error)

	// MarkProcessed records a figure as fully processed. Idempotent:
	// marking the same pair twice is a no-op in effect.
	MarkProcessed(ctx context.Context, doc domain.DocumentID, index int) error
}

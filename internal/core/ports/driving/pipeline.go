// Package driving defines the interfaces through which the outside
// world (CLI commands) drives the core.
package driving

import (
	"context"

	"github.com/custodia-labs/paperpost-cli/internal/core/domain"
)

// RunSummary reports the outcome of one pipeline run.
type RunSummary struct {
	// DocumentID is the fingerprint of the processed document.
	DocumentID domain.DocumentID

	// TotalFigures is the number of admitted figures.
	TotalFigures int

	// ProcessedFigures is the number of figures completed this run.
	ProcessedFigures int

	// SkippedFigures is the number of figures skipped due to
	// collaborator failures (left unmarked, retried next run).
	SkippedFigures int

	// CommittedPosts counts posts committed to the primary sink.
	CommittedPosts int

	// FallbackPosts counts posts routed to the fallback log.
	FallbackPosts int
}

// RunStatus reports ledger state for a document without processing.
type RunStatus struct {
	DocumentID       domain.DocumentID
	TotalFigures     int
	ProcessedFigures int
}

// PipelineRunner sequences fingerprinting, extraction, ledger
// filtering, generation and persistence over all figures of one
// document run.
type PipelineRunner interface {
	// Run processes all unprocessed figures of the document at docPath.
	Run(ctx context.Context, docPath string) (*RunSummary, error)

	// Status reports ledger progress for the document at docPath.
	Status(ctx context.Context, docPath string) (*RunStatus, error)
}

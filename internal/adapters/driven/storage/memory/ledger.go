// Package memory provides in-memory implementations of the storage
// ports. They back tests and dry runs; nothing here survives the
// process.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/paperpost-cli/internal/core/domain"
	"github.com/custodia-labs/paperpost-cli/internal/core/ports/driven"
)

// Ensure Ledger implements the interface.
var _ driven.ProcessingLedger = (*Ledger)(nil)

// Ledger is an in-memory ProcessingLedger.
type Ledger struct {
	mu        sync.RWMutex
	processed map[domain.DocumentID]map[int]struct{}
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{processed: make(map[domain.DocumentID]map[int]struct{})}
}

// MarkProcessed records a figure as processed. Idempotent.
func (l *Ledger) MarkProcessed(_ context.Context, doc domain.DocumentID, index int) error {
	if doc == "" || index < 0 {
		return domain.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.processed[doc] == nil {
		l.processed[doc] = make(map[int]struct{})
	}
	l.processed[doc][index] = struct{}{}
	return nil
}

// Processed returns the sorted processed indices for a document.
func (l *Ledger) Processed(_ context.Context, doc domain.DocumentID) ([]int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	indices := make([]int, 0, len(l.processed[doc]))
	for idx := range l.processed[doc] {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices, nil
}

// Unprocessed returns the sorted indices in [0, total) not yet marked.
func (l *Ledger) Unprocessed(_ context.Context, doc domain.DocumentID, total int) ([]int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var remaining []int
	for i := 0; i < total; i++ {
		if _, ok := l.processed[doc][i]; !ok {
			remaining = append(remaining, i)
		}
	}
	return remaining, nil
}

package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/paperpost-cli/internal/core/ports/driven"
)

// Ensure the memory types implement the interfaces.
var (
	_ driven.PostSink    = (*Sink)(nil)
	_ driven.FallbackLog = (*Fallback)(nil)
)

// Sink is an in-memory PostSink. Committed records are kept in commit
// order; Recent serves them most recent first, which makes the
// within-run window ordering observable in tests.
type Sink struct {
	mu      sync.RWMutex
	records []driven.PostRecord

	// Unconfigured makes Configured return false.
	Unconfigured bool

	// UploadErr, if set, is returned by UploadAsset.
	UploadErr error

	// CreateErr, if set, is returned by CreateRecord.
	CreateErr error

	// RecentErr, if set, is returned by Recent.
	RecentErr error
}

// NewSink creates an empty in-memory sink.
func NewSink() *Sink {
	return &Sink{}
}

// Configured reports whether the sink accepts commits.
func (s *Sink) Configured() bool {
	return !s.Unconfigured
}

// UploadAsset pretends to upload the image and returns a descriptor.
func (s *Sink) UploadAsset(_ context.Context, path string) (driven.AssetInfo, error) {
	if s.UploadErr != nil {
		return nil, s.UploadErr
	}
	return driven.AssetInfo{"path": path}, nil
}

// CreateRecord stores the record.
func (s *Sink) CreateRecord(_ context.Context, rec driven.PostRecord) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Recent returns up to limit post bodies, most recent first.
func (s *Sink) Recent(_ context.Context, limit int) ([]string, error) {
	if s.RecentErr != nil {
		return nil, s.RecentErr
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var bodies []string
	for i := len(s.records) - 1; i >= 0 && len(bodies) < limit; i-- {
		bodies = append(bodies, s.records[i].Text)
	}
	return bodies, nil
}

// Records returns a copy of all committed records in commit order.
func (s *Sink) Records() []driven.PostRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]driven.PostRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Seed pre-populates the sink with already-persisted post bodies, as
// if they had been committed before the run.
func (s *Sink) Seed(bodies ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bodies {
		s.records = append(s.records, driven.PostRecord{Text: b})
	}
}

// Fallback is an in-memory FallbackLog.
type Fallback struct {
	mu      sync.RWMutex
	records []driven.PostRecord

	// AppendErr, if set, is returned by Append.
	AppendErr error
}

// NewFallback creates an empty in-memory fallback log.
func NewFallback() *Fallback {
	return &Fallback{}
}

// Append stores the record.
func (f *Fallback) Append(_ context.Context, rec driven.PostRecord) error {
	if f.AppendErr != nil {
		return f.AppendErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

// Records returns a copy of all appended records in append order.
func (f *Fallback) Records() []driven.PostRecord {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]driven.PostRecord, len(f.records))
	copy(out, f.records)
	return out
}

package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/paperpost-cli/internal/core/domain"
	"github.com/custodia-labs/paperpost-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperpost-cli/internal/logger"
)

// Router routes accepted posts to a durable sink. The primary
// structured store is attempted only when fully configured; any
// failure along the primary path (configuration, upload, record
// write) falls back to the append-only local log instead of raising.
// A generated, filtered post is never silently dropped.
type Router struct {
	primary  driven.PostSink
	fallback driven.FallbackLog
}

// NewRouter creates a persistence router.
func NewRouter(primary driven.PostSink, fallback driven.FallbackLog) *Router {
	return &Router{primary: primary, fallback: fallback}
}

// Commit durably persists one post record. The returned result names
// the sink that holds the durable copy. An error is returned only when
// the fallback log itself fails, which means the post could not be
// persisted anywhere.
func (r *Router) Commit(ctx context.Context, rec driven.PostRecord) (driven.CommitResult, error) {
	if err := r.commitPrimary(ctx, rec); err != nil {
		if err == errPrimarySkipped {
			logger.Info("primary sink not configured, saving post %s to fallback log", rec.ID)
		} else {
			logger.Warn("primary sink failed for post %s, saving to fallback log: %v", rec.ID, err)
		}

		if err := r.fallback.Append(ctx, rec); err != nil {
			return driven.CommitResult{}, fmt.Errorf("fallback append: %w", err)
		}
		return driven.CommitResult{Sink: driven.SinkFallback}, nil
	}

	return driven.CommitResult{Sink: driven.SinkPrimary}, nil
}

// errPrimarySkipped distinguishes "not configured" from real failures
// for logging; both route to the fallback.
var errPrimarySkipped = fmt.Errorf("primary sink skipped: %w", domain.ErrConfigIncomplete)

// commitPrimary attempts the primary path: upload the source image
// first, then write the structured record referencing it.
func (r *Router) commitPrimary(ctx context.Context, rec driven.PostRecord) error {
	if r.primary == nil || !r.primary.Configured() {
		return errPrimarySkipped
	}

	asset, err := r.primary.UploadAsset(ctx, rec.ImagePath)
	if err != nil {
		return fmt.Errorf("uploading image: %w", err)
	}

	rec.Asset = asset
	if err := r.primary.CreateRecord(ctx, rec); err != nil {
		return fmt.Errorf("creating record: %w", err)
	}
	return nil
}

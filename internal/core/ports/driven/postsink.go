package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/paperpost-cli/internal/core/domain"
)

// AssetInfo is the opaque file descriptor returned by the primary
// sink's upload endpoint, passed back verbatim when creating a record.
type AssetInfo map[string]any

// PostRecord is the persisted form of an accepted post: the text plus
// the figure image reference and analysis metadata.
type PostRecord struct {
	// ID is the post's unique identifier.
	ID string

	// Text is the post body.
	Text string

	// ImagePath is the local path of the source figure image.
	ImagePath string

	// Description is the plain-text flattening of the figure analysis.
	Description string

	// FigureIndex is the index of the figure the post derives from.
	FigureIndex int

	// CreatedAt is when the post was drafted.
	CreatedAt time.Time

	// Asset is the uploaded image descriptor. Only set on the primary
	// path, after a successful upload.
	Asset AssetInfo
}

// SinkKind names the durable destination of a committed post.
type SinkKind string

const (
	// SinkPrimary is the remote structured store.
	SinkPrimary SinkKind = "primary"

	// SinkFallback is the append-only local log.
	SinkFallback SinkKind = "fallback"
)

// CommitResult reports where the router durably placed a post.
type CommitResult struct {
	Sink SinkKind
}

// RecentPostsReader fetches the texts of recently persisted posts,
// most recent first, for similarity comparison.
type RecentPostsReader interface {
	// Recent returns up to limit post bodies. An unconfigured or
	// unreachable sink returns an empty slice, not an error, so the
	// window degrades rather than blocking generation.
	Recent(ctx context.Context, limit int) ([]string, error)
}

// PostSink is the primary structured store for accepted posts.
type PostSink interface {
	RecentPostsReader

	// Configured reports whether all required connection parameters
	// are present. When false the primary path is skipped entirely.
	Configured() bool

	// UploadAsset uploads the figure image and returns its descriptor.
	UploadAsset(ctx context.Context, path string) (AssetInfo, error)

	// CreateRecord writes the structured post record.
	CreateRecord(ctx context.Context, rec PostRecord) error
}

// FallbackLog is the append-only local record of posts that could not
// be committed to the primary sink. It is never pruned; a post handed
// to it is never lost.
type FallbackLog interface {
	// Append writes one post row, creating the log with a header row
	// on first write.
	Append(ctx context.Context, rec PostRecord) error
}

// NewPostRecord converts a domain post plus its analysis into a record.
func NewPostRecord(post domain.Post, description, imagePath string) PostRecord {
	return PostRecord{
		ID:          post.ID,
		Text:        post.Text,
		ImagePath:   imagePath,
		Description: description,
		FigureIndex: post.FigureIndex,
		CreatedAt:   post.CreatedAt,
	}
}

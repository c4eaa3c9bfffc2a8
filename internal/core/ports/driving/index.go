package driving

import (
	"context"
	"io"
)

// IndexService applies verified index feeds to the store.
// Every call runs in one transaction and leaves the store unchanged on error.
type IndexService interface {
	// ApplyFull replaces all data of a repository with a full index.
	ApplyFull(ctx context.Context, repoID, version int64, formatVersion string, r io.Reader) error

	// ApplyDiff merges a diff index into the stored data of a repository.
	ApplyDiff(ctx context.Context, repoID, version int64, r io.Reader) error

	// Update applies a diff generated against baseTimestamp. It fails with
	// domain.ErrStaleDiff when the stored timestamp differs, in which case
	// the caller fetches a full index instead.
	Update(ctx context.Context, repoID, baseTimestamp, version int64, r io.Reader) error
}

package thumbnail

import (
	"context"
	"io"

	"github.com/dmitrijs2005/gophmedia/internal/models"
)

// Store is the attachment store as seen by the coordinator.
type Store interface {
	// ReadThumbnail returns the stored thumbnail or ErrNoThumbnail.
	ReadThumbnail(ctx context.Context, id int64) (io.ReadCloser, error)

	// ReadAttachment returns metadata or common.ErrorNotFound.
	ReadAttachment(ctx context.Context, id int64) (*models.Attachment, error)

	// OpenData returns the decrypted attachment content.
	OpenData(ctx context.Context, id int64) (io.ReadCloser, error)

	// WriteThumbnail stores a thumbnail. It must be visible to ReadThumbnail
	// once it returns.
	WriteThumbnail(ctx context.Context, id int64, data []byte, aspectRatio float64) error
}

// Generator renders thumbnails.
type Generator interface {
	Supports(contentType string) bool
	Generate(ctx context.Context, contentType string, src io.Reader) (*models.Thumbnail, error)
}

// Dispatcher runs a generation job for id and returns its result.
//
// Dispatch may return an error of its own (for example ctx.Err()) only if
// job was never started. Once job has started, Dispatch waits for it and
// returns what it returned.
type Dispatcher interface {
	Dispatch(ctx context.Context, id int64, job func(ctx context.Context) error) error
}

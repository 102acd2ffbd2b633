package attachments

import (
	"context"

	"github.com/dmitrijs2005/gophmedia/internal/models"
)

// Repository describes storage of attachment metadata.
type Repository interface {
	// Create inserts a, sets a.ID and returns it.
	Create(ctx context.Context, a *models.Attachment) (int64, error)

	// GetByID returns the attachment or common.ErrorNotFound.
	GetByID(ctx context.Context, id int64) (*models.Attachment, error)

	// SetThumbnail records the thumbnail blob key and aspect ratio.
	SetThumbnail(ctx context.Context, id int64, key string, aspectRatio float64) error

	// ClearThumbnail forgets the thumbnail so it will be generated again.
	ClearThumbnail(ctx context.Context, id int64) error

	// ListIDs returns all attachment ids in ascending order.
	ListIDs(ctx context.Context) ([]int64, error)

	// DeleteByID removes the attachment row.
	DeleteByID(ctx context.Context, id int64) error
}

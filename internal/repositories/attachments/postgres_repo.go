package attachments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophmedia/internal/common"
	"github.com/dmitrijs2005/gophmedia/internal/dbx"
	"github.com/dmitrijs2005/gophmedia/internal/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx)
// opened with the pgx stdlib driver.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a and fills in the server-assigned id and created_at.
func (r *PostgresRepository) Create(ctx context.Context, a *models.Attachment) (int64, error) {
	query := `
		INSERT INTO attachments (content_type, data_key, data_size, thumbnail_key, aspect_ratio)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, a.ContentType, a.DataKey, a.DataSize, a.ThumbnailKey, a.AspectRatio).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return a.ID, nil
}

// GetByID returns the attachment row or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Attachment, error) {
	query := `
		SELECT id, content_type, data_key, data_size, thumbnail_key, aspect_ratio, created_at
		FROM attachments WHERE id = $1
	`
	a := &models.Attachment{}
	var thumbKey sql.NullString
	var aspect sql.NullFloat64

	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&a.ID, &a.ContentType, &a.DataKey, &a.DataSize, &thumbKey, &aspect, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("attachment %d: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select attachment: %w", err)
	}

	if thumbKey.Valid {
		a.ThumbnailKey = &thumbKey.String
	}
	if aspect.Valid {
		a.AspectRatio = &aspect.Float64
	}
	return a, nil
}

// SetThumbnail records the thumbnail of id. Exactly one row must be affected.
func (r *PostgresRepository) SetThumbnail(ctx context.Context, id int64, key string, aspectRatio float64) error {
	query := `UPDATE attachments SET thumbnail_key = $1, aspect_ratio = $2 WHERE id = $3`
	return execOne(ctx, r.db, id, query, key, aspectRatio, id)
}

func (r *PostgresRepository) ClearThumbnail(ctx context.Context, id int64) error {
	query := `UPDATE attachments SET thumbnail_key = NULL, aspect_ratio = NULL WHERE id = $1`
	return execOne(ctx, r.db, id, query, id)
}

func (r *PostgresRepository) ListIDs(ctx context.Context) ([]int64, error) {
	return listIDs(ctx, r.db, `SELECT id FROM attachments ORDER BY id`)
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id int64) error {
	return execOne(ctx, r.db, id, `DELETE FROM attachments WHERE id = $1`, id)
}

package attachments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophmedia/internal/common"
	"github.com/dmitrijs2005/gophmedia/internal/dbx"
	"github.com/dmitrijs2005/gophmedia/internal/models"
)

// SQLiteRepository stores attachments in a local SQLite database.
// created_at is kept as unix seconds.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, a *models.Attachment) (int64, error) {

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	query := `INSERT INTO attachments (content_type, data_key, data_size, thumbnail_key, aspect_ratio, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, a.ContentType, a.DataKey, a.DataSize, a.ThumbnailKey, a.AspectRatio, a.CreatedAt.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to insert attachment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	a.ID = id
	return id, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Attachment, error) {

	query := `SELECT id, content_type, data_key, data_size, thumbnail_key, aspect_ratio, created_at
			FROM attachments WHERE id = ?`

	a := &models.Attachment{}
	var thumbKey sql.NullString
	var aspect sql.NullFloat64
	var created int64

	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.ContentType, &a.DataKey, &a.DataSize, &thumbKey, &aspect, &created)
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
	a.CreatedAt = time.Unix(created, 0).UTC()

	return a, nil
}

func (r *SQLiteRepository) SetThumbnail(ctx context.Context, id int64, key string, aspectRatio float64) error {
	query := `UPDATE attachments SET thumbnail_key = ?, aspect_ratio = ? WHERE id = ?`
	return execOne(ctx, r.db, id, query, key, aspectRatio, id)
}

func (r *SQLiteRepository) ClearThumbnail(ctx context.Context, id int64) error {
	query := `UPDATE attachments SET thumbnail_key = NULL, aspect_ratio = NULL WHERE id = ?`
	return execOne(ctx, r.db, id, query, id)
}

func (r *SQLiteRepository) ListIDs(ctx context.Context) ([]int64, error) {
	return listIDs(ctx, r.db, `SELECT id FROM attachments ORDER BY id`)
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id int64) error {
	return execOne(ctx, r.db, id, `DELETE FROM attachments WHERE id = ?`, id)
}

// execOne runs a statement that must touch exactly the row of id.
func execOne(ctx context.Context, db dbx.DBTX, id int64, query string, args ...any) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update attachment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	switch rowsAffected {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("attachment %d: %w", id, common.ErrorNotFound)
	default:
		return fmt.Errorf("unexpected rows affected: %d", rowsAffected)
	}
}

func listIDs(ctx context.Context, db dbx.DBTX, query string) ([]int64, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error selecting attachments: %w", err)
	}
	defer rows.Close()

	var result []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

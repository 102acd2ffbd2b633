// Package services implements attachment storage on top of the metadata
// repositories, the blob backends and the attachment cipher.
package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/gophmedia/internal/attachcipher"
	"github.com/dmitrijs2005/gophmedia/internal/blobstore"
	"github.com/dmitrijs2005/gophmedia/internal/common"
	"github.com/dmitrijs2005/gophmedia/internal/cryptox"
	"github.com/dmitrijs2005/gophmedia/internal/dbx"
	"github.com/dmitrijs2005/gophmedia/internal/imaging"
	"github.com/dmitrijs2005/gophmedia/internal/logging"
	"github.com/dmitrijs2005/gophmedia/internal/media"
	"github.com/dmitrijs2005/gophmedia/internal/models"
	"github.com/dmitrijs2005/gophmedia/internal/repositories/repomanager"
	"github.com/dmitrijs2005/gophmedia/internal/thumbnail"
	"github.com/dmitrijs2005/gophmedia/internal/transfer"
	"github.com/google/uuid"
)

const (
	attachmentPrefix = "attachments"
	thumbnailPrefix  = "thumbnails"
)

var _ thumbnail.Store = (*AttachmentService)(nil)

// AttachmentService stores attachments encrypted at rest. Each blob is sealed
// with key material derived from its own storage key.
type AttachmentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blobstore.Store
	keys        cryptox.KeyProvider
	constraints media.Constraints
	observer    transfer.Observer
	log         logging.Logger
}

type Option func(*AttachmentService)

// WithConstraints replaces the import limits (media.PushConstraints by default).
func WithConstraints(c media.Constraints) Option {
	return func(s *AttachmentService) { s.constraints = c }
}

// WithObserver reports byte progress of every blob read and written.
func WithObserver(o transfer.Observer) Option {
	return func(s *AttachmentService) { s.observer = o }
}

func NewAttachmentService(db *sql.DB, repomanager repomanager.RepositoryManager, blobs blobstore.Store,
	keys cryptox.KeyProvider, log logging.Logger, opts ...Option) *AttachmentService {
	s := &AttachmentService{
		db:          db,
		repomanager: repomanager,
		blobs:       blobs,
		keys:        keys,
		constraints: media.PushConstraints,
		log:         log,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func GetRandomStorageKey(prefix string) string {
	d := time.Now()
	return fmt.Sprintf("%s/%d/%d/%d/%v", prefix, d.Year(), d.Month(), d.Day(), uuid.New())
}

// Import checks src against the media constraints, stores it encrypted and
// records it. The returned attachment carries the new id. An image outside
// the constraints is first downscaled and re-encoded as JPEG; it is rejected
// only when that cannot bring it within the limits.
func (s *AttachmentService) Import(ctx context.Context, contentType string, src io.Reader) (*models.Attachment, error) {
	ct := media.Normalize(contentType)
	if ct == "" {
		return nil, common.ErrorEmptyContentType
	}

	plain, err := os.CreateTemp("", "gophmedia-import-*")
	if err != nil {
		return nil, err
	}
	defer removeTemp(plain)

	size, err := io.Copy(plain, src)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}

	var width, height int
	if media.IsImage(ct) {
		if _, err := plain.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		// an undecodable header leaves 0x0, which no constraint accepts
		width, height, _ = imaging.Dimensions(plain)
	}

	var body io.Reader = plain
	if _, err := plain.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if !s.constraints.Satisfied(ct, size, width, height) {
		if !imaging.CanResize(ct) {
			return nil, constraintError(ct, size, width, height, nil)
		}
		r, err := s.shrink(ctx, plain)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, constraintError(ct, size, width, height, err)
		}
		s.log.Info(ctx, "attachment resized",
			"content_type", ct,
			"old_kb", fmt.Sprintf("%.1f", float64(size)/1024),
			"new_kb", fmt.Sprintf("%.1f", float64(len(r.Data))/1024),
			"width", r.Width, "height", r.Height)

		ct, size, width, height = imaging.ResizedContentType, int64(len(r.Data)), r.Width, r.Height
		if !s.constraints.Satisfied(ct, size, width, height) {
			return nil, constraintError(ct, size, width, height, nil)
		}
		body = bytes.NewReader(r.Data)
	}

	key := GetRandomStorageKey(attachmentPrefix)
	if err := s.putSealed(ctx, key, body, size); err != nil {
		return nil, err
	}

	a := &models.Attachment{ContentType: ct, DataKey: key, DataSize: size}
	a.ID, err = dbx.WithTxResult(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (int64, error) {
		return s.repomanager.Attachments(tx).Create(ctx, a)
	})
	if err != nil {
		s.deleteBlob(ctx, key)
		return nil, err
	}

	s.log.Info(ctx, "attachment imported", "attachment_id", a.ID, "content_type", ct, "size", size)
	return a, nil
}

// shrink re-encodes an oversized image to fit the image constraints.
func (s *AttachmentService) shrink(ctx context.Context, src io.Reader) (*imaging.Resized, error) {
	return imaging.Resize(ctx, src, imaging.ResizeOptions{
		MaxWidth:  s.constraints.ImageMaxWidth,
		MaxHeight: s.constraints.ImageMaxHeight,
		MaxBytes:  s.constraints.ImageMaxSize,
		Quality:   imaging.DefaultQuality,
	})
}

func constraintError(ct string, size int64, width, height int, cause error) error {
	if cause != nil {
		return fmt.Errorf("%s of %d bytes (%dx%d) cannot be resized (%v): %w",
			ct, size, width, height, cause, common.ErrorConstraintViolation)
	}
	return fmt.Errorf("%s of %d bytes (%dx%d): %w", ct, size, width, height, common.ErrorConstraintViolation)
}

func (s *AttachmentService) ReadAttachment(ctx context.Context, id int64) (*models.Attachment, error) {
	return s.repomanager.Attachments(s.db).GetByID(ctx, id)
}

func (s *AttachmentService) ListIDs(ctx context.Context) ([]int64, error) {
	return s.repomanager.Attachments(s.db).ListIDs(ctx)
}

// OpenData returns the decrypted content of id. The blob is authenticated
// before the first byte is returned.
func (s *AttachmentService) OpenData(ctx context.Context, id int64) (io.ReadCloser, error) {
	a, err := s.ReadAttachment(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.openSealed(ctx, a.DataKey)
}

// Export writes the decrypted content of id to w.
func (s *AttachmentService) Export(ctx context.Context, id int64, w io.Writer) (int64, error) {
	rc, err := s.OpenData(ctx, id)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	return io.Copy(w, rc)
}

// ReadThumbnail returns the decrypted thumbnail of id, or
// thumbnail.ErrNoThumbnail when none is recorded or its blob is gone.
func (s *AttachmentService) ReadThumbnail(ctx context.Context, id int64) (io.ReadCloser, error) {
	a, err := s.ReadAttachment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.HasThumbnail() {
		return nil, thumbnail.ErrNoThumbnail
	}

	rc, err := s.openSealed(ctx, *a.ThumbnailKey)
	if errors.Is(err, common.ErrorNotFound) {
		s.log.Warn(ctx, "thumbnail blob missing", "attachment_id", id, "key", *a.ThumbnailKey)
		return nil, thumbnail.ErrNoThumbnail
	}
	return rc, err
}

// WriteThumbnail stores data as the thumbnail of id. The record is updated
// before it returns, so the next ReadThumbnail sees it. A replaced thumbnail
// blob is deleted.
func (s *AttachmentService) WriteThumbnail(ctx context.Context, id int64, data []byte, aspectRatio float64) error {
	key := GetRandomStorageKey(thumbnailPrefix)
	if err := s.putSealed(ctx, key, bytes.NewReader(data), int64(len(data))); err != nil {
		return err
	}

	var old *string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Attachments(tx)
		a, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		old = a.ThumbnailKey
		return repo.SetThumbnail(ctx, id, key, aspectRatio)
	})
	if err != nil {
		s.deleteBlob(ctx, key)
		return err
	}

	if old != nil && *old != "" {
		s.deleteBlob(ctx, *old)
	}
	return nil
}

// InvalidateThumbnail drops the thumbnail of id. Callers holding a
// thumbnail.Coordinator should also call its Forget.
func (s *AttachmentService) InvalidateThumbnail(ctx context.Context, id int64) error {
	var old *string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Attachments(tx)
		a, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		old = a.ThumbnailKey
		return repo.ClearThumbnail(ctx, id)
	})
	if err != nil {
		return err
	}
	if old != nil && *old != "" {
		s.deleteBlob(ctx, *old)
	}
	return nil
}

// Delete removes the record of id and then its blobs.
func (s *AttachmentService) Delete(ctx context.Context, id int64) error {
	a, err := dbx.WithTxResult(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.Attachment, error) {
		repo := s.repomanager.Attachments(tx)
		a, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return a, repo.DeleteByID(ctx, id)
	})
	if err != nil {
		return err
	}

	s.deleteBlob(ctx, a.DataKey)
	if a.HasThumbnail() {
		s.deleteBlob(ctx, *a.ThumbnailKey)
	}
	return nil
}

// putSealed encrypts size bytes of src into a temp file and uploads it.
func (s *AttachmentService) putSealed(ctx context.Context, key string, src io.Reader, size int64) error {
	k, err := s.keys.KeyFor(key)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(k)

	sealed, err := os.CreateTemp("", "gophmedia-sealed-*")
	if err != nil {
		return err
	}
	defer removeTemp(sealed)

	if _, err := attachcipher.Encrypt(sealed, transfer.NewReader(src, size, s.observer), k); err != nil {
		return err
	}
	if _, err := sealed.Seek(0, io.SeekStart); err != nil {
		return err
	}

	if _, err := s.blobs.Put(ctx, key, sealed); err != nil {
		return fmt.Errorf("store blob: %w", err)
	}
	return nil
}

// openSealed authenticates and opens the blob stored under key. Blobs that
// are not local files are spooled to a temp file first, since verification
// needs random access.
func (s *AttachmentService) openSealed(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.blobs.Open(ctx, key)
	if err != nil {
		return nil, err
	}

	f, ok := rc.(*os.File)
	cleanup := func() { _ = rc.Close() }
	if !ok {
		tmp, err := os.CreateTemp("", "gophmedia-open-*")
		if err != nil {
			_ = rc.Close()
			return nil, err
		}
		_, err = io.Copy(tmp, rc)
		_ = rc.Close()
		if err != nil {
			removeTemp(tmp)
			return nil, fmt.Errorf("fetch blob: %w", err)
		}
		f = tmp
		cleanup = func() { removeTemp(tmp) }
	}

	info, err := f.Stat()
	if err != nil {
		cleanup()
		return nil, err
	}

	k, err := s.keys.KeyFor(key)
	if err != nil {
		cleanup()
		return nil, err
	}
	defer common.WipeByteArray(k)

	r, err := attachcipher.NewReader(f, info.Size(), k)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("open blob %s: %w", key, err)
	}

	return &sealedReader{
		Reader: transfer.NewReader(r, -1, s.observer),
		close:  cleanup,
	}, nil
}

// deleteBlob is best-effort cleanup; it still runs after ctx is canceled.
func (s *AttachmentService) deleteBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.log.Warn(ctx, "blob not deleted", "key", key, "error", err)
	}
}

type sealedReader struct {
	io.Reader
	close func()
}

func (r *sealedReader) Close() error {
	r.close()
	return nil
}

func removeTemp(f *os.File) {
	_ = f.Close()
	_ = os.Remove(f.Name())
}

package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/gophmedia/internal/common"
	"github.com/dmitrijs2005/gophmedia/internal/media"
	"github.com/dmitrijs2005/gophmedia/internal/models"
)

// memStore is an in-memory Store with call counters and injectable failures.
type memStore struct {
	mu          sync.Mutex
	attachments map[int64]*models.Attachment
	data        map[int64][]byte
	thumbs      map[int64][]byte
	aspects     map[int64]float64

	openErr  error
	writeErr error

	thumbReads atomic.Int32
	metaReads  atomic.Int32
	writes     atomic.Int32
}

func newMemStore() *memStore {
	return &memStore{
		attachments: map[int64]*models.Attachment{},
		data:        map[int64][]byte{},
		thumbs:      map[int64][]byte{},
		aspects:     map[int64]float64{},
	}
}

func (s *memStore) add(id int64, contentType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments[id] = &models.Attachment{ID: id, ContentType: contentType, DataKey: fmt.Sprintf("attachments/%d", id), DataSize: int64(len(data))}
	s.data[id] = data
}

func (s *memStore) setOpenErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openErr = err
}

func (s *memStore) ReadThumbnail(ctx context.Context, id int64) (io.ReadCloser, error) {
	s.thumbReads.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attachments[id]; !ok {
		return nil, fmt.Errorf("attachment %d: %w", id, common.ErrorNotFound)
	}
	b, ok := s.thumbs[id]
	if !ok {
		return nil, ErrNoThumbnail
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *memStore) ReadAttachment(ctx context.Context, id int64) (*models.Attachment, error) {
	s.metaReads.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attachments[id]
	if !ok {
		return nil, fmt.Errorf("attachment %d: %w", id, common.ErrorNotFound)
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) OpenData(ctx context.Context, id int64) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	return io.NopCloser(bytes.NewReader(s.data[id])), nil
}

func (s *memStore) WriteThumbnail(ctx context.Context, id int64, data []byte, aspectRatio float64) error {
	s.writes.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.thumbs[id] = append([]byte(nil), data...)
	s.aspects[id] = aspectRatio
	return nil
}

// fakeGen renders "thumb:"+content for image types. When hold is set, every
// Generate call blocks until hold is closed.
type fakeGen struct {
	calls   atomic.Int32
	started chan struct{}
	hold    chan struct{}
	err     error
	panics  bool
	waitCtx bool
}

func newFakeGen() *fakeGen {
	return &fakeGen{started: make(chan struct{}, 64)}
}

func (g *fakeGen) Supports(contentType string) bool {
	return media.IsImage(contentType)
}

func (g *fakeGen) Generate(ctx context.Context, contentType string, src io.Reader) (*models.Thumbnail, error) {
	g.calls.Add(1)
	g.started <- struct{}{}
	if g.hold != nil {
		<-g.hold
	}
	if g.waitCtx {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if g.panics {
		panic("decoder exploded")
	}
	if g.err != nil {
		return nil, g.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return &models.Thumbnail{Data: append([]byte("thumb:"), b...), Width: 2, Height: 1, AspectRatio: 2}, nil
}

// toggleDispatcher refuses jobs while refuse is set and runs them inline
// otherwise.
type toggleDispatcher struct {
	refuse atomic.Bool
	calls  atomic.Int32
}

var errQueueFull = fmt.Errorf("queue full")

func (d *toggleDispatcher) Dispatch(ctx context.Context, id int64, job func(ctx context.Context) error) error {
	d.calls.Add(1)
	if d.refuse.Load() {
		return errQueueFull
	}
	return job(ctx)
}

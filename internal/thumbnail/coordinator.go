package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/gophmedia/internal/common"
	"github.com/dmitrijs2005/gophmedia/internal/logging"
)

// Coordinator serves thumbnails with single-flight generation per id.
type Coordinator struct {
	store      Store
	gen        Generator
	dispatcher Dispatcher
	log        logging.Logger
	reg        *registry
	timeout    time.Duration
}

type Option func(*Coordinator)

// WithGenerationTimeout bounds a single generation. Zero means no bound.
func WithGenerationTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

// New returns a Coordinator. A nil dispatcher runs generations inline.
func New(store Store, gen Generator, dispatcher Dispatcher, log logging.Logger, opts ...Option) *Coordinator {
	if dispatcher == nil {
		dispatcher = InlineDispatcher{}
	}
	if log == nil {
		log = logging.Nop()
	}
	c := &Coordinator{
		store:      store,
		gen:        gen,
		dispatcher: dispatcher,
		log:        log,
		reg:        newRegistry(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Thumbnail returns a stream of the thumbnail of id, generating it first if
// necessary. It returns ErrNoThumbnail when the content type has no
// thumbnail, common.ErrorNotFound for an unknown id and *GenerationError when
// generation failed. Canceling ctx stops waiting for another caller's
// generation without affecting it.
func (c *Coordinator) Thumbnail(ctx context.Context, id int64) (io.ReadCloser, error) {
	for {
		rc, err := c.store.ReadThumbnail(ctx, id)
		if err == nil {
			return rc, nil
		}
		if !errors.Is(err, ErrNoThumbnail) {
			return nil, err
		}

		f, owner, settled := c.reg.acquire(id)
		if settled {
			return nil, ErrNoThumbnail
		}

		if owner {
			if err := c.dispatch(ctx, id, f); err != nil {
				return nil, err
			}
			return c.store.ReadThumbnail(ctx, id)
		}

		c.log.Debug(ctx, "waiting for thumbnail generation", "attachment_id", id)
		select {
		case <-f.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		switch {
		case !f.started:
			// the owner gave up before generating; try to take over
			continue
		case f.err != nil:
			return nil, f.err
		case f.noop:
			return nil, ErrNoThumbnail
		}
	}
}

// dispatch hands the generation of id to the dispatcher. f is released on
// every path, including a job that never started.
func (c *Coordinator) dispatch(ctx context.Context, id int64, f *flight) error {
	defer c.reg.release(id, f, false, false, nil)

	err := c.dispatcher.Dispatch(ctx, id, func(jobCtx context.Context) (err error) {
		var noop bool
		defer func() {
			if p := recover(); p != nil {
				err = &GenerationError{ID: id, Err: fmt.Errorf("panic: %v", p)}
			}
			c.reg.release(id, f, true, noop, err)
		}()

		// a started generation runs to completion even if its requester leaves
		jobCtx = context.WithoutCancel(jobCtx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			jobCtx, cancel = context.WithTimeout(jobCtx, c.timeout)
			defer cancel()
		}

		noop, err = c.generate(jobCtx, id)
		return err
	})
	if err != nil && !f.started {
		c.log.Warn(ctx, "thumbnail generation not started", "attachment_id", id, "error", err)
	}
	return err
}

// generate is the generation procedure. noop reports that the content type
// has no thumbnail and nothing was written.
func (c *Coordinator) generate(ctx context.Context, id int64) (noop bool, err error) {
	start := time.Now()

	a, err := c.store.ReadAttachment(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, err
		}
		return false, &GenerationError{ID: id, Err: err}
	}

	if !c.gen.Supports(a.ContentType) {
		c.log.Debug(ctx, "no thumbnail for content type", "attachment_id", id, "content_type", a.ContentType)
		return true, nil
	}

	src, err := c.store.OpenData(ctx, id)
	if err != nil {
		return false, c.failed(ctx, id, err)
	}
	defer src.Close()

	th, err := c.gen.Generate(ctx, a.ContentType, src)
	if err != nil {
		return false, c.failed(ctx, id, err)
	}

	if err := c.store.WriteThumbnail(ctx, id, th.Data, th.AspectRatio); err != nil {
		return false, c.failed(ctx, id, err)
	}

	c.log.Info(ctx, "thumbnail generated",
		"attachment_id", id,
		"content_type", a.ContentType,
		"bytes", len(th.Data),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return false, nil
}

func (c *Coordinator) failed(ctx context.Context, id int64, err error) error {
	c.log.Error(ctx, "thumbnail generation failed", "attachment_id", id, "error", err)
	return &GenerationError{ID: id, Err: err}
}

// InFlight reports whether a generation for id is running.
func (c *Coordinator) InFlight(id int64) bool {
	return c.reg.inFlight(id)
}

// Forget drops the memory that id has no thumbnail, so the next Thumbnail
// call generates again. Call it when the attachment record changes.
func (c *Coordinator) Forget(id int64) {
	c.reg.forget(id)
}

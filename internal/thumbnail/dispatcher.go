package thumbnail

import (
	"context"
	"sync"
)

// InlineDispatcher runs jobs on the calling goroutine.
type InlineDispatcher struct{}

func (InlineDispatcher) Dispatch(ctx context.Context, id int64, job func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return job(ctx)
}

type task struct {
	ctx  context.Context
	job  func(ctx context.Context) error
	done chan error
}

// Pool runs jobs on a fixed number of worker goroutines, which bounds the
// number of concurrent generations across all ids.
type Pool struct {
	tasks     chan task
	quit      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewPool starts workers goroutines; at least one is started.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		tasks: make(chan task),
		quit:  make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case t := <-p.tasks:
			t.done <- t.job(t.ctx)
		case <-p.quit:
			return
		}
	}
}

// Dispatch waits for a free worker. It gives up with ctx.Err() or
// ErrPoolClosed only while the job has not been handed over; after that it
// waits for the job to finish.
func (p *Pool) Dispatch(ctx context.Context, id int64, job func(ctx context.Context) error) error {
	t := task{ctx: ctx, job: job, done: make(chan error, 1)}

	select {
	case <-p.quit:
		return ErrPoolClosed
	default:
	}

	select {
	case p.tasks <- t:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.quit:
		return ErrPoolClosed
	}

	return <-t.done
}

// Close stops the workers after running jobs have finished.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.quit) })
	p.wg.Wait()
}

package thumbnail

import "sync"

// flight is one generation of one id. done is closed on release; the
// outcome fields are written before that and read only after.
type flight struct {
	done chan struct{}
	once sync.Once

	// started is false when the job never ran (dispatcher refused it).
	started bool
	noop    bool
	err     error
}

// registry is the set of ids with a generation in flight, plus the ids whose
// last generation produced nothing.
type registry struct {
	mu       sync.Mutex
	inflight map[int64]*flight
	settled  map[int64]struct{}
}

func newRegistry() *registry {
	return &registry{
		inflight: make(map[int64]*flight),
		settled:  make(map[int64]struct{}),
	}
}

// acquire returns the flight of id. owner is true when the caller created it
// and must release it. settled short-circuits: nothing is in flight and the
// last generation was a no-op.
func (r *registry) acquire(id int64) (f *flight, owner, settled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.inflight[id]; ok {
		return f, false, false
	}
	if _, ok := r.settled[id]; ok {
		return nil, false, true
	}

	f = &flight{done: make(chan struct{})}
	r.inflight[id] = f
	return f, true, false
}

// release clears id and wakes every waiter. Only the first call for a flight
// has an effect.
func (r *registry) release(id int64, f *flight, started, noop bool, err error) {
	f.once.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.inflight[id] == f {
			delete(r.inflight, id)
		}
		if started && noop && err == nil {
			r.settled[id] = struct{}{}
		}

		f.started, f.noop, f.err = started, noop, err
		close(f.done)
	})
}

func (r *registry) inFlight(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inflight[id]
	return ok
}

func (r *registry) forget(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.settled, id)
}

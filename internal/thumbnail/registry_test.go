package thumbnail

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AcquireRelease(t *testing.T) {
	r := newRegistry()

	f, owner, settled := r.acquire(1)
	require.True(t, owner)
	require.False(t, settled)
	assert.True(t, r.inFlight(1))

	f2, owner2, _ := r.acquire(1)
	assert.False(t, owner2)
	assert.Same(t, f, f2)

	r.release(1, f, true, false, errors.New("x"))
	r.release(1, f, false, false, nil) // second release is ignored

	<-f.done
	assert.True(t, f.started)
	assert.EqualError(t, f.err, "x")
	assert.False(t, r.inFlight(1))

	_, owner, _ = r.acquire(1)
	assert.True(t, owner, "a failed generation is not remembered")
}

func TestRegistry_NoopIsSettledUntilForgotten(t *testing.T) {
	r := newRegistry()

	f, _, _ := r.acquire(5)
	r.release(5, f, true, true, nil)

	_, owner, settled := r.acquire(5)
	assert.False(t, owner)
	assert.True(t, settled)
	assert.False(t, r.inFlight(5))

	r.forget(5)
	_, owner, settled = r.acquire(5)
	assert.True(t, owner)
	assert.False(t, settled)
}

func TestRegistry_IDsAreIndependent(t *testing.T) {
	r := newRegistry()
	_, o1, _ := r.acquire(1)
	_, o2, _ := r.acquire(2)
	assert.True(t, o1)
	assert.True(t, o2)
}

func TestGenerationError(t *testing.T) {
	base := errors.New("decode failed")
	err := error(&GenerationError{ID: 9, Err: base})
	assert.EqualError(t, err, "thumbnail generation for attachment 9: decode failed")
	assert.ErrorIs(t, err, base)
}

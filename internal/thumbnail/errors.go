package thumbnail

import (
	"errors"
	"fmt"
)

var (
	// ErrNoThumbnail reports that the attachment has no thumbnail and none
	// can be derived from its content type.
	ErrNoThumbnail = errors.New("no thumbnail")

	// ErrPoolClosed is returned by Pool.Dispatch after Close.
	ErrPoolClosed = errors.New("thumbnail pool closed")
)

// GenerationError wraps a failure of the generation procedure for one id.
type GenerationError struct {
	ID  int64
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("thumbnail generation for attachment %d: %v", e.ID, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Package thumbnail serves attachment thumbnails, generating them on demand.
//
// The Coordinator guarantees that at most one generation runs per attachment
// id at any time. Concurrent callers for the same id wait for the running
// generation and then share its outcome: the stored thumbnail, ErrNoThumbnail
// when the content type has none, or the owner's *GenerationError.
//
// Per id the state is derived, never stored:
//
//	ABSENT     no thumbnail in the store, id not in flight
//	GENERATING id in flight
//	PRESENT    the store returns a thumbnail
//
// Typical usage:
//
//	pool := thumbnail.NewPool(4)
//	defer pool.Close()
//	c := thumbnail.New(store, imaging.New(300, 85), pool, log)
//	rc, err := c.Thumbnail(ctx, id)
package thumbnail

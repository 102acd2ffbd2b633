// Package blobstore stores encrypted attachment and thumbnail blobs.
//
// Three backends are available: FSStore (a local directory), S3Store (any
// S3-compatible object store) and BadgerStore (an embedded key-value store).
// All of them report missing keys as common.ErrorNotFound.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// Store is a flat key/blob namespace. Keys use forward slashes.
type Store interface {
	// Put stores the content of r under key, replacing any previous blob,
	// and returns the number of bytes stored.
	Put(ctx context.Context, key string, r io.Reader) (int64, error)

	// Open returns the blob stored under key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

const (
	BackendFS     = "fs"
	BackendS3     = "s3"
	BackendBadger = "badger"
)

// checkKey rejects keys that are empty or escape the namespace.
func checkKey(key string) error {
	if key == "" {
		return fmt.Errorf("blob key is empty")
	}
	if strings.HasPrefix(key, "/") || path.Clean(key) != key || strings.HasPrefix(key, "..") {
		return fmt.Errorf("invalid blob key %q", key)
	}
	return nil
}

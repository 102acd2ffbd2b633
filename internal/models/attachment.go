// Package models defines the attachment records shared by the store, the
// repositories and the thumbnail coordinator.
package models

import "time"

// Attachment is the metadata row of one stored attachment.
// The blobs it references are sealed with attachcipher.
type Attachment struct {
	// ID is the store-assigned identifier.
	ID int64

	// ContentType is the normalized MIME type, e.g. "image/png".
	ContentType string

	// DataKey locates the encrypted attachment bytes in blob storage.
	DataKey string
	// DataSize is the plaintext size in bytes.
	DataSize int64

	// ThumbnailKey locates the encrypted thumbnail, nil until one is generated.
	ThumbnailKey *string
	// AspectRatio is width/height of the thumbnail, nil until one is generated.
	AspectRatio *float64

	CreatedAt time.Time
}

// HasThumbnail reports whether a thumbnail blob has been recorded.
func (a *Attachment) HasThumbnail() bool {
	return a.ThumbnailKey != nil && *a.ThumbnailKey != ""
}

// Thumbnail is a derived preview image ready to be stored.
type Thumbnail struct {
	Data        []byte
	Width       int
	Height      int
	AspectRatio float64
}

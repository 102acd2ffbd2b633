// Package media classifies attachment content types and enforces the size
// and dimension limits for outgoing media.
package media

import (
	"mime"
	"strings"
)

const MB = 1024 * 1024

// Normalize lower-cases a content type and drops parameters
// ("image/PNG; q=1" -> "image/png"). Unparseable input is only trimmed.
func Normalize(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

func IsImage(contentType string) bool {
	return strings.HasPrefix(Normalize(contentType), "image/")
}

func IsVideo(contentType string) bool {
	return strings.HasPrefix(Normalize(contentType), "video/")
}

func IsAudio(contentType string) bool {
	return strings.HasPrefix(Normalize(contentType), "audio/")
}

// Constraints bounds media accepted for sending. Types that are neither
// image, audio nor video are never constrained.
type Constraints struct {
	ImageMaxWidth  int
	ImageMaxHeight int
	ImageMaxSize   int64
	VideoMaxSize   int64
	AudioMaxSize   int64
}

// PushConstraints are the limits for media sent over the push channel.
var PushConstraints = Constraints{
	ImageMaxWidth:  2560,
	ImageMaxHeight: 2560,
	ImageMaxSize:   3 * MB,
	VideoMaxSize:   1024 * MB,
	AudioMaxSize:   300 * MB,
}

// Satisfied reports whether an attachment of the given type and size fits.
// width and height are only consulted for images; pass 0 when unknown and
// the dimension check fails, as an image must have positive dimensions.
func (c Constraints) Satisfied(contentType string, size int64, width, height int) bool {
	switch {
	case IsImage(contentType):
		return size <= c.ImageMaxSize && c.WithinBounds(width, height)
	case IsAudio(contentType):
		return size <= c.AudioMaxSize
	case IsVideo(contentType):
		return size <= c.VideoMaxSize
	default:
		return true
	}
}

func (c Constraints) WithinBounds(width, height int) bool {
	return width > 0 && width <= c.ImageMaxWidth &&
		height > 0 && height <= c.ImageMaxHeight
}

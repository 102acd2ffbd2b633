package imaging

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/dmitrijs2005/gophmedia/internal/media"
)

// ResizedContentType is the content type of every Resize result.
const ResizedContentType = "image/jpeg"

const (
	minResizeQuality = 50
	qualityStep      = 10
)

var ErrTooLarge = errors.New("image exceeds size limit after resizing")

// ResizeOptions bounds the output of Resize. MaxBytes <= 0 disables the
// byte limit; a Quality outside 1..100 selects DefaultQuality.
type ResizeOptions struct {
	MaxWidth  int
	MaxHeight int
	MaxBytes  int64
	Quality   int
}

// Resized is an image re-encoded as JPEG.
type Resized struct {
	Data   []byte
	Width  int
	Height int
}

// CanResize reports whether an attachment of contentType may be replaced by
// a Resize result. GIFs are excluded so animations are not flattened.
func CanResize(contentType string) bool {
	ct := media.Normalize(contentType)
	return media.IsImage(ct) && ct != "image/gif"
}

// Resize decodes src, scales it down into MaxWidth x MaxHeight and encodes
// it as JPEG. While the encoding exceeds MaxBytes the quality is lowered in
// steps down to 50; if that is still too large ErrTooLarge is returned.
func Resize(ctx context.Context, src io.Reader, opts ResizeOptions) (*Resized, error) {
	if opts.MaxWidth <= 0 || opts.MaxHeight <= 0 {
		return nil, fmt.Errorf("resize: invalid bounds %dx%d", opts.MaxWidth, opts.MaxHeight)
	}
	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	img, format, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("decode: empty %s image", format)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, h := fitRect(b.Dx(), b.Dy(), opts.MaxWidth, opts.MaxHeight)
	dst := scale(img, w, h)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := encodeJPEG(dst, quality)
		if err != nil {
			return nil, fmt.Errorf("encode: %w", err)
		}
		if opts.MaxBytes <= 0 || int64(len(data)) <= opts.MaxBytes {
			return &Resized{Data: data, Width: w, Height: h}, nil
		}
		if quality <= minResizeQuality {
			return nil, fmt.Errorf("%d bytes at quality %d, limit %d: %w", len(data), quality, opts.MaxBytes, ErrTooLarge)
		}
		quality = max(quality-qualityStep, minResizeQuality)
	}
}

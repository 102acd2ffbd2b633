// Package imaging renders JPEG thumbnails of still images.
//
// Decoding covers jpeg, png, gif, bmp, tiff and webp. Scaling uses the
// Catmull-Rom kernel from golang.org/x/image/draw.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/dmitrijs2005/gophmedia/internal/media"
	"github.com/dmitrijs2005/gophmedia/internal/models"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxSize = 300
	DefaultQuality = 85
)

var ErrUnsupported = errors.New("content type has no thumbnail renderer")

// Generator scales images down to fit a MaxSize x MaxSize box.
type Generator struct {
	maxSize int
	quality int
}

// New returns a Generator. Non-positive arguments select the defaults.
func New(maxSize, quality int) *Generator {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Generator{maxSize: maxSize, quality: quality}
}

func (g *Generator) Supports(contentType string) bool {
	return media.IsImage(contentType)
}

// Generate decodes src and returns the encoded thumbnail. AspectRatio is
// width/height of the source image.
func (g *Generator) Generate(ctx context.Context, contentType string, src io.Reader) (*models.Thumbnail, error) {
	if !g.Supports(contentType) {
		return nil, fmt.Errorf("%s: %w", contentType, ErrUnsupported)
	}

	img, format, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", contentType, err)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("decode %s: empty %s image", contentType, format)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, h := fit(b.Dx(), b.Dy(), g.maxSize)
	dst := scale(img, w, h)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := encodeJPEG(dst, g.quality)
	if err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return &models.Thumbnail{
		Data:        data,
		Width:       w,
		Height:      h,
		AspectRatio: float64(b.Dx()) / float64(b.Dy()),
	}, nil
}

// scale draws img into a w x h RGBA canvas over white, since jpeg has no
// alpha channel.
func scale(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fit scales w x h down to fit a box x box square. Images already inside
// the box keep their size.
func fit(w, h, box int) (int, int) {
	return fitRect(w, h, box, box)
}

// fitRect scales w x h down to fit maxW x maxH keeping the aspect ratio.
func fitRect(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	// compare w/maxW with h/maxH without floats
	if w*maxH >= h*maxW {
		return maxW, clampMin(h * maxW / w)
	}
	return clampMin(w * maxH / h), maxH
}

func clampMin(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// Dimensions reads only the image header of r.
func Dimensions(r io.Reader) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// Package imaging decodes uploaded images and renders their thumbnails.
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/disintegration/gift"
	"github.com/tendant/simple-carousel/pkg/carousel"
)

const (
	DefaultJPEGQuality = 90
	DefaultMaxPixels   = 40_000_000
)

// Processor implements carousel.ImageProcessor
type Processor struct {
	sizes       []carousel.ThumbnailSize
	jpegQuality int
	maxPixels   int
}

// Option configures a Processor
type Option func(*Processor)

// WithSizes sets the thumbnail boxes
func WithSizes(sizes ...carousel.ThumbnailSize) Option {
	return func(p *Processor) {
		p.sizes = sizes
	}
}

// WithJPEGQuality sets the quality of encoded JPEG thumbnails
func WithJPEGQuality(quality int) Option {
	return func(p *Processor) {
		p.jpegQuality = quality
	}
}

// WithMaxPixels rejects images whose width*height exceeds n
func WithMaxPixels(n int) Option {
	return func(p *Processor) {
		p.maxPixels = n
	}
}

// New creates a processor with the default thumbnail sizes
func New(opts ...Option) *Processor {
	p := &Processor{
		sizes:       carousel.DefaultThumbnailSizes,
		jpegQuality: DefaultJPEGQuality,
		maxPixels:   DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sizes returns the configured thumbnail boxes
func (p *Processor) Sizes() []carousel.ThumbnailSize {
	return p.sizes
}

// Process decodes the image read from r and renders one thumbnail per size.
// The original bytes are kept untouched.
func (p *Processor) Process(ctx context.Context, name string, r io.Reader) (*carousel.ProcessedImage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", carousel.ErrInvalidImage, name, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > p.maxPixels {
		return nil, fmt.Errorf("%w: %s: unsupported dimensions %dx%d", carousel.ErrInvalidImage, name, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", carousel.ErrInvalidImage, name, err)
	}

	result := &carousel.ProcessedImage{
		Format:      format,
		ContentType: "image/" + format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Original:    data,
	}

	for _, size := range p.sizes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		thumb, err := p.encode(Thumbnail(src, size), format)
		if err != nil {
			return nil, fmt.Errorf("encode %s thumbnail of %s: %w", size, name, err)
		}
		result.Thumbnails = append(result.Thumbnails, carousel.Thumbnail{Size: size, Data: thumb})
	}

	return result, nil
}

// Thumbnail scales src to fit inside size, keeping the aspect ratio.
// Images already inside the box are copied unscaled.
func Thumbnail(src image.Image, size carousel.ThumbnailSize) image.Image {
	var filters []gift.Filter
	b := src.Bounds()
	if b.Dx() > size.Width || b.Dy() > size.Height {
		filters = append(filters, gift.ResizeToFit(size.Width, size.Height, gift.LanczosResampling))
	}

	g := gift.New(filters...)
	dst := image.NewNRGBA(g.Bounds(b))
	g.Draw(dst, src)
	return dst
}

func (p *Processor) encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.jpegQuality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

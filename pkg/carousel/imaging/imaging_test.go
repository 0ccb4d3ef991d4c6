package imaging_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-carousel/pkg/carousel"
	"github.com/tendant/simple-carousel/pkg/carousel/imaging"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessor_Process(t *testing.T) {
	p := imaging.New(imaging.WithSizes(
		carousel.ThumbnailSize{Width: 60, Height: 60},
		carousel.ThumbnailSize{Width: 400, Height: 400},
	))
	data := encodePNG(t, 300, 150)

	result, err := p.Process(context.Background(), "banner.png", bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "png", result.Format)
	assert.Equal(t, "image/png", result.ContentType)
	assert.Equal(t, 300, result.Width)
	assert.Equal(t, 150, result.Height)
	assert.Equal(t, data, result.Original)
	require.Len(t, result.Thumbnails, 2)

	small, err := png.DecodeConfig(bytes.NewReader(result.Thumbnails[0].Data))
	require.NoError(t, err)
	assert.Equal(t, 60, small.Width)
	assert.Equal(t, 30, small.Height)

	large, err := png.DecodeConfig(bytes.NewReader(result.Thumbnails[1].Data))
	require.NoError(t, err)
	assert.Equal(t, 300, large.Width, "images inside the box are not upscaled")
	assert.Equal(t, 150, large.Height)
}

func TestProcessor_ProcessJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 240))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	result, err := imaging.New().Process(context.Background(), "tall.jpg", &buf)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", result.Format)
	assert.Len(t, result.Thumbnails, len(carousel.DefaultThumbnailSizes))

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(result.Thumbnails[0].Data))
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Width)
	assert.Equal(t, 60, cfg.Height)
}

func TestProcessor_RejectsNonImages(t *testing.T) {
	_, err := imaging.New().Process(context.Background(), "notes.txt", strings.NewReader("definitely not an image"))
	assert.ErrorIs(t, err, carousel.ErrInvalidImage)
}

func TestProcessor_RejectsOversizedImages(t *testing.T) {
	p := imaging.New(imaging.WithMaxPixels(100))
	_, err := p.Process(context.Background(), "big.png", bytes.NewReader(encodePNG(t, 20, 20)))
	assert.ErrorIs(t, err, carousel.ErrInvalidImage)
}

func TestProcessor_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := imaging.New().Process(ctx, "a.png", bytes.NewReader(encodePNG(t, 10, 10)))
	assert.ErrorIs(t, err, context.Canceled)
}

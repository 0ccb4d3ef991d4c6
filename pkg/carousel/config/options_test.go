package config

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-carousel/pkg/carousel"
	"github.com/tendant/simple-carousel/pkg/carousel/owner"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(WithJWTSecret("secret"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "memory", cfg.DatabaseType)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, "core.manage_shop", cfg.Capability)
	assert.Equal(t, carousel.DefaultThumbnailSizes, cfg.ThumbnailSizes)
}

func TestOptions(t *testing.T) {
	cfg, err := Load(
		WithJWTSecret("secret"),
		WithPort("9000"),
		WithEnvironment("testing"),
		WithFilesystemStorage(t.TempDir()),
		WithCapability("shop.edit"),
		WithOwnerKinds(owner.KindSpec{ID: 5, Name: "page"}),
		WithThumbnailSizes(carousel.ThumbnailSize{Width: 80, Height: 80}),
		WithEventLogging(false),
		nil,
	)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "fs", cfg.Storage.Type)
	assert.Equal(t, "shop.edit", cfg.Capability)
	assert.Len(t, cfg.OwnerKinds, 1)
	assert.False(t, cfg.EnableEventLogging)
}

func TestOptionErrors(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"empty port", WithPort("")},
		{"empty environment", WithEnvironment("")},
		{"bad database", WithDatabase("sqlite", "")},
		{"postgres without url", WithDatabase("postgres", "")},
		{"empty fs dir", WithFilesystemStorage("")},
		{"empty bucket", WithS3Storage("", "", "")},
		{"minio without endpoint", WithMinIOStorage("", "b", "", "", false)},
		{"empty capability", WithCapability("")},
		{"bad thumbnail", WithThumbnailSizes(carousel.ThumbnailSize{Width: 0, Height: 10})},
		{"no owner kinds", WithOwnerKinds()},
		{"no thumbnail sizes", WithThumbnailSizes()},
		{"list thumbnail not generated", WithListThumbnailSize(carousel.ThumbnailSize{Width: 50, Height: 50})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(WithJWTSecret("secret"), tt.opt)
			assert.Error(t, err)
		})
	}
}

func TestBuild_InMemory(t *testing.T) {
	cfg, err := Load(
		WithJWTSecret("secret"),
		WithOwnerKinds(owner.KindSpec{ID: 1, Name: "product"}, owner.KindSpec{ID: 2, Name: "category"}),
		WithThumbnailSizes(carousel.ThumbnailSize{Width: 60, Height: 60}),
	)
	require.NoError(t, err)

	rt, err := cfg.Build(context.Background())
	require.NoError(t, err)
	defer rt.Close()

	assert.NotNil(t, rt.Service)
	assert.NotNil(t, rt.Renderer)
	assert.NotNil(t, rt.Metrics)
	assert.Len(t, rt.Owners.Kinds(), 2)

	resolved, items, err := rt.Service.ListItems(context.Background(), carousel.OwnerRef{KindID: 2, ID: 7})
	require.NoError(t, err)
	assert.Equal(t, "category #7", resolved.Label)
	assert.Empty(t, items)

	_, _, err = rt.Service.ListItems(context.Background(), carousel.OwnerRef{KindID: 3, ID: 7})
	assert.ErrorIs(t, err, carousel.ErrOwnerNotFound)
}

func TestBuild_Filesystem(t *testing.T) {
	cfg, err := Load(WithJWTSecret("secret"), WithFilesystemStorage(t.TempDir()))
	require.NoError(t, err)

	rt, err := cfg.Build(context.Background())
	require.NoError(t, err)
	defer rt.Close()

	_, err = rt.BlobStore.GetObjectMeta(context.Background(), "images/missing.png")
	assert.ErrorIs(t, err, carousel.ErrObjectNotFound)
}

func TestListThumbnail(t *testing.T) {
	cfg, err := Load(WithJWTSecret("secret"))
	require.NoError(t, err)
	assert.Equal(t, carousel.ThumbnailSize{Width: 60, Height: 60}, cfg.ListThumbnail())

	cfg, err = Load(
		WithJWTSecret("secret"),
		WithThumbnailSizes(carousel.ThumbnailSize{Width: 300, Height: 300}, carousel.ThumbnailSize{Width: 80, Height: 80}),
	)
	require.NoError(t, err)
	assert.Equal(t, carousel.ThumbnailSize{Width: 80, Height: 80}, cfg.ListThumbnail())

	cfg, err = Load(
		WithJWTSecret("secret"),
		WithThumbnailSizes(carousel.ThumbnailSize{Width: 300, Height: 300}, carousel.ThumbnailSize{Width: 80, Height: 80}),
		WithListThumbnailSize(carousel.ThumbnailSize{Width: 300, Height: 300}),
	)
	require.NoError(t, err)
	assert.Equal(t, carousel.ThumbnailSize{Width: 300, Height: 300}, cfg.ListThumbnail())
}

func TestBuild_ListThumbnailIsStored(t *testing.T) {
	cfg, err := Load(
		WithJWTSecret("secret"),
		WithThumbnailSizes(carousel.ThumbnailSize{Width: 80, Height: 80}),
	)
	require.NoError(t, err)

	rt, err := cfg.Build(context.Background())
	require.NoError(t, err)
	defer rt.Close()

	img := image.NewNRGBA(image.Rect(0, 0, 200, 100))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	data := buf.Bytes()

	ctx := context.Background()
	result, err := rt.Service.AddItems(ctx, carousel.OwnerRef{KindID: 1, ID: 1}, []carousel.Upload{{
		Name:        "a.png",
		ContentType: "image/png",
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}})
	require.NoError(t, err)
	require.Len(t, result.Created, 1)

	view := rt.Renderer.ItemView(result.Created[0])
	require.True(t, strings.HasPrefix(view.ThumbnailURL, cfg.MediaURL+"/"))
	assert.True(t, strings.HasSuffix(view.ThumbnailURL, ".80x80.png"))

	key := strings.TrimPrefix(view.ThumbnailURL, cfg.MediaURL+"/")
	_, err = rt.BlobStore.GetObjectMeta(ctx, key)
	assert.NoError(t, err)
}

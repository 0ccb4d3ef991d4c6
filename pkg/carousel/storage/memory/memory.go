package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/tendant/simple-carousel/pkg/carousel"
)

type object struct {
	data        []byte
	contentType string
	updatedAt   time.Time
}

// Backend is an in-memory implementation of the carousel.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string]object),
	}
}

// Upload stores the content of reader
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params carousel.UploadParams) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	contentType := params.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[params.ObjectKey] = object{data: data, contentType: contentType, updatedAt: time.Now().UTC()}
	return nil
}

// Download returns the stored content
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, carousel.ErrObjectNotFound
	}

	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete removes an object
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return carousel.ErrObjectNotFound
	}

	delete(b.objects, objectKey)
	return nil
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*carousel.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, carousel.ErrObjectNotFound
	}

	return &carousel.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(obj.data)),
		ContentType: obj.contentType,
		UpdatedAt:   obj.updatedAt,
	}, nil
}

// Keys returns the stored keys in lexical order
func (b *Backend) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

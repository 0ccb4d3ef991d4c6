package carousel

import (
	"context"
	"io"
)

// Repository defines the interface for carousel item persistence
type Repository interface {
	CreateItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id int64) (*Item, error)
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, id int64) error

	// ListItems returns the items of owner ordered by position, then id
	ListItems(ctx context.Context, owner OwnerRef) ([]*Item, error)

	// WithinTx runs fn against a repository bound to a single transaction
	// when the backend supports it, or against itself otherwise.
	WithinTx(ctx context.Context, fn func(repo Repository) error) error
}

// BlobStore defines the interface for image storage backends
type BlobStore interface {
	// Upload stores the content of reader under params.ObjectKey
	Upload(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download opens a stored object
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes a stored object
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// ImageProcessor decodes an upload and derives its thumbnails
type ImageProcessor interface {
	Process(ctx context.Context, name string, reader io.Reader) (*ProcessedImage, error)
}

// OwnerResolver resolves an owner reference to the owning entity
type OwnerResolver interface {
	ResolveOwner(ctx context.Context, ref OwnerRef) (*Owner, error)
}

// EventSink receives change notifications. Publishing is fire-and-forget:
// a returned error is logged by the caller and never fails the mutation.
type EventSink interface {
	CarouselChanged(ctx context.Context, event ChangeEvent) error
}

// Recorder observes mutations, typically for metrics
type Recorder interface {
	ItemsAdded(n int)
	UploadFailed()
	ItemsDeleted(n int)
	FieldsUpdated(n int)
	ItemMoved(direction Direction)
	PositionsRefreshed(changed int)
}

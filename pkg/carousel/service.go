package carousel

import "context"

// Response messages of the bulk update operation
const (
	MessageItemsAdded     = "Carousel items have been added."
	MessageItemsDeleted   = "Carousel items have been deleted."
	MessageItemsUpdated   = "Carousel items have been updated."
	MessageItemsUnchanged = "Carousel items have not been changed."
)

// Service defines the main interface of the carousel library
type Service interface {
	// Owner operations
	ResolveOwner(ctx context.Context, ref OwnerRef) (*Owner, error)

	// Read operations
	ListItems(ctx context.Context, ref OwnerRef) (*Owner, []*Item, error)
	GetItem(ctx context.Context, id int64) (*Item, error)

	// Mutations. Each one renumbers the owner's items and publishes a
	// change event before returning.
	AddItems(ctx context.Context, ref OwnerRef, uploads []Upload) (*AddItemsResult, error)
	UpdateItems(ctx context.Context, req UpdateItemsRequest) (*UpdateItemsResult, error)
	MoveItem(ctx context.Context, id int64, direction Direction) (*Item, error)

	// RefreshPositions renumbers the items of an owner to 10, 20, 30...
	RefreshPositions(ctx context.Context, ref OwnerRef) error
}

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tendant/simple-carousel/pkg/carousel"
)

// Repository implements carousel.Repository using in-memory storage
type Repository struct {
	mu     sync.RWMutex
	txMu   sync.Mutex
	items  map[int64]*carousel.Item
	nextID int64
}

// New creates a new in-memory repository
func New() carousel.Repository {
	return &Repository{
		items: make(map[int64]*carousel.Item),
	}
}

func (r *Repository) CreateItem(ctx context.Context, item *carousel.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == 0 {
		r.nextID++
		item.ID = r.nextID
	} else if item.ID > r.nextID {
		r.nextID = item.ID
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = now
	}

	// Store a copy to avoid external modifications
	itemCopy := *item
	r.items[item.ID] = &itemCopy

	return nil
}

func (r *Repository) GetItem(ctx context.Context, id int64) (*carousel.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[id]
	if !exists {
		return nil, carousel.ErrItemNotFound
	}

	itemCopy := *item
	return &itemCopy, nil
}

func (r *Repository) UpdateItem(ctx context.Context, item *carousel.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.items[item.ID]
	if !exists {
		return carousel.ErrItemNotFound
	}

	itemCopy := *item
	itemCopy.CreatedAt = existing.CreatedAt
	if itemCopy.UpdatedAt.IsZero() {
		itemCopy.UpdatedAt = time.Now().UTC()
	}
	r.items[item.ID] = &itemCopy

	return nil
}

func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[id]; !exists {
		return carousel.ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *Repository) ListItems(ctx context.Context, owner carousel.OwnerRef) ([]*carousel.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*carousel.Item{}
	for _, item := range r.items {
		if item.BelongsTo(owner) {
			itemCopy := *item
			result = append(result, &itemCopy)
		}
	}
	carousel.SortItems(result)

	return result, nil
}

// WithinTx serializes fn against other transactions. There is no rollback:
// writes made before fn fails are kept.
func (r *Repository) WithinTx(ctx context.Context, fn func(repo carousel.Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	return fn(r)
}

package carousel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// service implements the Service interface
type service struct {
	repository Repository
	blobStore  BlobStore
	images     ImageProcessor
	owners     OwnerResolver
	eventSink  EventSink
	recorder   Recorder
	validate   *validator.Validate
	logger     *slog.Logger
	sizes      []ThumbnailSize
	now        func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the image storage backend
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithImageProcessor sets the processor that decodes uploads
func WithImageProcessor(p ImageProcessor) Option {
	return func(s *service) {
		s.images = p
	}
}

// WithOwnerResolver sets the resolver for owner references
func WithOwnerResolver(r OwnerResolver) Option {
	return func(s *service) {
		s.owners = r
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithRecorder sets the mutation recorder
func WithRecorder(r Recorder) Option {
	return func(s *service) {
		s.recorder = r
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithThumbnailSizes sets the sizes removed along with an item image.
// It should match the sizes of the image processor.
func WithThumbnailSizes(sizes ...ThumbnailSize) Option {
	return func(s *service) {
		s.sizes = sizes
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		eventSink: NewNoopEventSink(),
		recorder:  noopRecorder{},
		validate:  validator.New(),
		logger:    slog.Default(),
		sizes:     DefaultThumbnailSizes,
		now:       func() time.Time { return time.Now().UTC() },
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.images == nil {
		return nil, fmt.Errorf("image processor is required")
	}
	if s.owners == nil {
		return nil, fmt.Errorf("owner resolver is required")
	}

	return s, nil
}

// Owner operations

func (s *service) ResolveOwner(ctx context.Context, ref OwnerRef) (*Owner, error) {
	owner, err := s.owners.ResolveOwner(ctx, ref)
	if err != nil {
		return nil, &OwnerError{Owner: ref, Op: "resolve", Err: err}
	}
	return owner, nil
}

// Read operations

func (s *service) ListItems(ctx context.Context, ref OwnerRef) (*Owner, []*Item, error) {
	owner, err := s.ResolveOwner(ctx, ref)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.repository.ListItems(ctx, ref)
	if err != nil {
		return nil, nil, &OwnerError{Owner: ref, Op: "list", Err: err}
	}
	return owner, items, nil
}

func (s *service) GetItem(ctx context.Context, id int64) (*Item, error) {
	item, err := s.repository.GetItem(ctx, id)
	if err != nil {
		return nil, &ItemError{ItemID: id, Op: "get", Err: err}
	}
	return item, nil
}

// Mutations

func (s *service) AddItems(ctx context.Context, ref OwnerRef, uploads []Upload) (*AddItemsResult, error) {
	if _, err := s.ResolveOwner(ctx, ref); err != nil {
		return nil, err
	}

	result := &AddItemsResult{Files: make([]FileEcho, 0, len(uploads))}
	for _, upload := range uploads {
		result.Files = append(result.Files, FileEcho{
			Name: upload.Name,
			Type: upload.ContentType,
			Size: upload.Size,
		})

		key, err := s.storeImage(ctx, upload)
		if err != nil {
			s.logger.InfoContext(ctx, "Upload item", "file", upload.Name, "error", err)
			s.recorder.UploadFailed()
			result.Skipped++
			continue
		}

		now := s.now()
		item := &Item{
			OwnerKindID: ref.KindID,
			OwnerID:     ref.ID,
			Title:       "",
			Image:       key,
			Position:    DefaultPosition,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repository.CreateItem(ctx, item); err != nil {
			s.deleteImage(ctx, key)
			if len(result.Created) > 0 {
				s.recorder.ItemsAdded(len(result.Created))
				if rerr := s.RefreshPositions(ctx, ref); rerr != nil {
					s.logger.ErrorContext(ctx, "failed to refresh positions after partial add", "owner", ref.String(), "error", rerr)
				}
				s.notify(ctx, ref, "add")
			}
			return nil, &OwnerError{Owner: ref, Op: "add", Err: err}
		}
		result.Created = append(result.Created, item)
	}
	s.recorder.ItemsAdded(len(result.Created))

	if err := s.RefreshPositions(ctx, ref); err != nil {
		return nil, err
	}
	s.notify(ctx, ref, "add")

	return result, nil
}

func (s *service) UpdateItems(ctx context.Context, req UpdateItemsRequest) (*UpdateItemsResult, error) {
	if _, err := s.ResolveOwner(ctx, req.Owner); err != nil {
		return nil, err
	}

	result := &UpdateItemsResult{Action: req.Action}
	var err error
	switch req.Action {
	case ActionDelete:
		result.Message = MessageItemsDeleted
		result.Deleted, err = s.deleteItems(ctx, req.Owner, req.Fields)
		s.recorder.ItemsDeleted(result.Deleted)
	case ActionUpdate:
		result.Message = MessageItemsUpdated
		result.Updated, err = s.updateFields(ctx, req.Owner, req.Fields)
		s.recorder.FieldsUpdated(result.Updated)
	default:
		result.Message = MessageItemsUnchanged
	}
	if err != nil {
		return nil, err
	}

	if err := s.RefreshPositions(ctx, req.Owner); err != nil {
		return nil, err
	}
	s.notify(ctx, req.Owner, string(req.Action))

	return result, nil
}

func (s *service) MoveItem(ctx context.Context, id int64, direction Direction) (*Item, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Position = Nudge(item.Position, direction)
	item.UpdatedAt = s.now()
	if err := s.repository.UpdateItem(ctx, item); err != nil {
		return nil, &ItemError{ItemID: id, Op: "move", Err: err}
	}
	s.recorder.ItemMoved(direction)

	ref := item.Owner()
	if err := s.RefreshPositions(ctx, ref); err != nil {
		return nil, err
	}
	s.notify(ctx, ref, "move")

	return s.GetItem(ctx, id)
}

func (s *service) RefreshPositions(ctx context.Context, ref OwnerRef) error {
	err := s.repository.WithinTx(ctx, func(repo Repository) error {
		items, err := repo.ListItems(ctx, ref)
		if err != nil {
			return err
		}

		changed := Renumber(items)
		for _, item := range changed {
			item.UpdatedAt = s.now()
			if err := repo.UpdateItem(ctx, item); err != nil {
				return &ItemError{ItemID: item.ID, Op: "renumber", Err: err}
			}
		}
		s.recorder.PositionsRefreshed(len(changed))
		return nil
	})
	if err != nil {
		return &OwnerError{Owner: ref, Op: "refresh", Err: err}
	}
	return nil
}

// deleteItems removes every item named by a "delete-<id>" key
func (s *service) deleteItems(ctx context.Context, ref OwnerRef, fields map[string]string) (int, error) {
	deleted := 0
	for _, key := range sortedKeys(fields) {
		id, ok := parseDeleteKey(key)
		if !ok {
			continue
		}

		item, err := s.ownedItem(ctx, ref, id)
		if errors.Is(err, ErrItemNotFound) {
			continue
		}
		if err != nil {
			return deleted, err
		}

		if err := s.repository.DeleteItem(ctx, id); err != nil {
			if errors.Is(err, ErrItemNotFound) {
				continue
			}
			return deleted, &ItemError{ItemID: id, Op: "delete", Err: err}
		}
		if item.HasImage() {
			s.deleteImage(ctx, item.Image)
		}
		deleted++
	}
	return deleted, nil
}

// updateFields applies every "<field>-<id>" key. Each field is read and
// written on its own, so several fields of one item accumulate.
func (s *service) updateFields(ctx context.Context, ref OwnerRef, fields map[string]string) (int, error) {
	updated := 0
	for _, key := range sortedKeys(fields) {
		field, id, ok := parseFieldKey(key)
		if !ok || !isEditableField(field) {
			continue
		}

		item, err := s.ownedItem(ctx, ref, id)
		if errors.Is(err, ErrItemNotFound) {
			continue
		}
		if err != nil {
			return updated, err
		}

		if err := s.applyField(item, field, fields[key]); err != nil {
			s.logger.DebugContext(ctx, "skipping invalid field", "key", key, "error", err)
			continue
		}
		item.UpdatedAt = s.now()
		if err := s.repository.UpdateItem(ctx, item); err != nil {
			if errors.Is(err, ErrItemNotFound) {
				continue
			}
			return updated, &ItemError{ItemID: id, Op: "update", Err: err}
		}
		updated++
	}
	return updated, nil
}

func (s *service) applyField(item *Item, field, value string) error {
	switch field {
	case FieldTitle:
		if err := s.validate.Var(value, "max=100"); err != nil {
			return err
		}
		item.Title = value
	case FieldLink:
		value = strings.TrimSpace(value)
		if err := s.validate.Var(value, "omitempty,url,max=200"); err != nil {
			return err
		}
		item.Link = value
	case FieldText:
		item.Text = value
	case FieldPosition:
		position, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		if err := s.validate.Var(position, "min=0,max=32767"); err != nil {
			return err
		}
		item.Position = position
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

// ownedItem loads an item and treats items of another owner as missing
func (s *service) ownedItem(ctx context.Context, ref OwnerRef, id int64) (*Item, error) {
	item, err := s.repository.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.BelongsTo(ref) {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// storeImage decodes an upload and stores it with its thumbnails
func (s *service) storeImage(ctx context.Context, upload Upload) (string, error) {
	if upload.Open == nil {
		return "", fmt.Errorf("%w: no content for %s", ErrUploadFailed, upload.Name)
	}
	rc, err := upload.Open()
	if err != nil {
		return "", &StorageError{Key: upload.Name, Op: "open", Err: err}
	}
	defer rc.Close()

	img, err := s.images.Process(ctx, upload.Name, rc)
	if err != nil {
		return "", err
	}

	key := NewImageKey(upload.Name, img.Format)
	if err := s.put(ctx, key, img.ContentType, img.Original); err != nil {
		return "", err
	}
	for _, thumb := range img.Thumbnails {
		if err := s.put(ctx, ThumbnailKey(key, thumb.Size), img.ContentType, thumb.Data); err != nil {
			s.deleteImage(ctx, key)
			return "", err
		}
	}
	return key, nil
}

func (s *service) put(ctx context.Context, key, contentType string, data []byte) error {
	params := UploadParams{ObjectKey: key, MimeType: contentType, Size: int64(len(data))}
	if err := s.blobStore.Upload(ctx, bytes.NewReader(data), params); err != nil {
		return &StorageError{Key: key, Op: "upload", Err: err}
	}
	return nil
}

// deleteImage removes an image and its thumbnails. Failures are logged only.
func (s *service) deleteImage(ctx context.Context, key string) {
	keys := []string{key}
	for _, size := range s.sizes {
		keys = append(keys, ThumbnailKey(key, size))
	}
	for _, k := range keys {
		if err := s.blobStore.Delete(ctx, k); err != nil && !errors.Is(err, ErrObjectNotFound) {
			s.logger.WarnContext(ctx, "failed to delete image", "key", k, "error", err)
		}
	}
}

func (s *service) notify(ctx context.Context, ref OwnerRef, op string) {
	event := ChangeEvent{Owner: ref, Operation: op, ChangedAt: s.now()}
	if err := s.eventSink.CarouselChanged(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "carousel changed notification failed", "owner", ref.String(), "error", err)
	}
}

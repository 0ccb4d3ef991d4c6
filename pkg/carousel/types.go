package carousel

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Position constants
const (
	// DefaultPosition marks an item that has not been ranked yet
	DefaultPosition = 999

	// PositionStep is the gap between consecutive ranked items
	PositionStep = 10

	// MoveStep is the nudge applied by a single move
	MoveStep = 15

	// MaxPosition is the largest position a record can hold
	MaxPosition = 32767
)

// OwnerRef identifies the entity a carousel belongs to.
// KindID selects the entity type, ID the entity within that type.
type OwnerRef struct {
	KindID int64 `json:"owner_kind_id"`
	ID     int64 `json:"owner_id"`
}

func (r OwnerRef) String() string {
	return fmt.Sprintf("%d/%d", r.KindID, r.ID)
}

// OwnerKind is an entity type that may own a carousel
type OwnerKind struct {
	ID   int64
	Name string
}

// Owner is a resolved owning entity
type Owner struct {
	Kind  OwnerKind
	ID    int64
	Label string
}

// Ref returns the reference of the owner
func (o *Owner) Ref() OwnerRef {
	return OwnerRef{KindID: o.Kind.ID, ID: o.ID}
}

// Item is a single carousel entry
type Item struct {
	ID          int64     `json:"id"`
	OwnerKindID int64     `json:"owner_kind_id"`
	OwnerID     int64     `json:"owner_id"`
	Title       string    `json:"title"`
	Image       string    `json:"image,omitempty"`
	Link        string    `json:"link"`
	Text        string    `json:"text"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Owner returns the owner reference of the item
func (i *Item) Owner() OwnerRef {
	return OwnerRef{KindID: i.OwnerKindID, ID: i.OwnerID}
}

// BelongsTo reports whether the item is owned by ref
func (i *Item) BelongsTo(ref OwnerRef) bool {
	return i.OwnerKindID == ref.KindID && i.OwnerID == ref.ID
}

// HasImage reports whether an image is attached
func (i *Item) HasImage() bool {
	return i.Image != ""
}

// ThumbnailSize is a bounding box for a derived image
type ThumbnailSize struct {
	Width  int
	Height int
}

func (s ThumbnailSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// DefaultThumbnailSizes are the boxes generated for every uploaded image
var DefaultThumbnailSizes = []ThumbnailSize{
	{Width: 60, Height: 60},
	{Width: 100, Height: 100},
	{Width: 200, Height: 200},
	{Width: 300, Height: 300},
	{Width: 400, Height: 400},
}

// ThumbnailKey returns the storage key of the thumbnail of imageKey for size.
// images/x/photo.jpg becomes images/x/photo.jpg.60x60.jpg
func ThumbnailKey(imageKey string, size ThumbnailSize) string {
	ext := strings.TrimPrefix(path.Ext(imageKey), ".")
	if ext == "" {
		return fmt.Sprintf("%s.%s", imageKey, size)
	}
	return fmt.Sprintf("%s.%s.%s", imageKey, size, ext)
}

// Direction of a move
type Direction int

const (
	DirectionUp Direction = iota
	DirectionDown
)

// ParseDirection maps the query value to a direction. Only "1" moves down.
func ParseDirection(s string) Direction {
	if s == "1" {
		return DirectionDown
	}
	return DirectionUp
}

func (d Direction) String() string {
	if d == DirectionDown {
		return "down"
	}
	return "up"
}

// UpdateAction selects the semantics of a bulk update request
type UpdateAction string

const (
	ActionUpdate UpdateAction = "update"
	ActionDelete UpdateAction = "delete"
)

// Upload is one file received by the add-item operation
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FileEcho describes an uploaded file in the add-item response
type FileEcho struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// AddItemsResult is returned by AddItems
type AddItemsResult struct {
	Files   []FileEcho
	Created []*Item
	Skipped int
}

// Last returns the last processed file, if any
func (r *AddItemsResult) Last() (FileEcho, bool) {
	if len(r.Files) == 0 {
		return FileEcho{}, false
	}
	return r.Files[len(r.Files)-1], true
}

// UpdateItemsRequest carries a bulk edit or delete
type UpdateItemsRequest struct {
	Owner  OwnerRef
	Action UpdateAction
	Fields map[string]string
}

// UpdateItemsResult is returned by UpdateItems
type UpdateItemsResult struct {
	Action  UpdateAction
	Message string
	Deleted int
	Updated int
}

// ChangeEvent is published after the items of an owner changed
type ChangeEvent struct {
	Owner     OwnerRef  `json:"owner"`
	Operation string    `json:"operation"`
	ChangedAt time.Time `json:"changed_at"`
}

// ProcessedImage is the result of decoding an upload
type ProcessedImage struct {
	Format      string
	ContentType string
	Width       int
	Height      int
	Original    []byte
	Thumbnails  []Thumbnail
}

// Thumbnail is an encoded derived image
type Thumbnail struct {
	Size ThumbnailSize
	Data []byte
}

// ObjectMeta contains metadata about a stored object
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
}

// UploadParams contains parameters for storing an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
	Size      int64
}

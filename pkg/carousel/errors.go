package carousel

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrItemNotFound indicates an item was not found
	ErrItemNotFound = errors.New("carousel item not found")

	// ErrOwnerNotFound indicates the owner kind or owner entity does not exist
	ErrOwnerNotFound = errors.New("owner not found")

	// ErrObjectNotFound indicates a stored object was not found
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidImage indicates an upload could not be decoded as an image
	ErrInvalidImage = errors.New("invalid image")

	// ErrUploadFailed indicates an upload operation failed
	ErrUploadFailed = errors.New("upload failed")
)

// ItemError represents an error related to item operations
type ItemError struct {
	ItemID int64
	Op     string
	Err    error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item operation %s failed for item %d: %v", e.Op, e.ItemID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// OwnerError represents an error related to the items of one owner
type OwnerError struct {
	Owner OwnerRef
	Op    string
	Err   error
}

func (e *OwnerError) Error() string {
	return fmt.Sprintf("carousel operation %s failed for owner %s: %v", e.Op, e.Owner, e.Err)
}

func (e *OwnerError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to storage operations
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

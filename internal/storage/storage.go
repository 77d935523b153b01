// Package storage provides the object storage used to publish and fetch
// table definitions.
package storage

import (
	"context"
	"errors"
)

// Sentinel causes for storage operations. Implementations return them
// wrapped in a STORAGE FormError, so both errors.Is and the error code work.
var (
	ErrObjectNotFound     = errors.New("object not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrUploadFailed       = errors.New("upload failed")
	ErrDownloadFailed     = errors.New("download failed")
	ErrDeleteFailed       = errors.New("delete failed")
)

// ObjectStorage abstracts object storage operations.
// Implementations include S3 and the local filesystem.
type ObjectStorage interface {
	// Get returns the content of an object and its ETag.
	Get(ctx context.Context, objectPath string) ([]byte, string, error)

	// Put writes an object and returns its new ETag.
	Put(ctx context.Context, objectPath string, data []byte) (string, error)

	// ConditionalPut writes only if the stored object still has etag.
	// An empty etag requires that the object does not exist yet.
	ConditionalPut(ctx context.Context, objectPath string, data []byte, etag string) (string, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, objectPath string) error

	// Exists checks if an object exists in storage.
	Exists(ctx context.Context, objectPath string) (bool, error)

	// ListObjects returns all object paths under the given prefix.
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

// Package storage provides the file storage abstraction for proof images and
// deliverable artifacts.
//
// Two implementations exist:
//   - LocalStorage: filesystem storage for development
//   - R2Storage: Cloudflare R2 (S3-compatible) object storage for production
//
// Storage is an external collaborator of the core engine: receipt and order
// state never depend on a storage call succeeding, and no storage operation
// runs inside a reconciler critical section.
package storage

import (
	"context"
	"io"
	"time"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage defines the interface for file storage operations.
// All methods are context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at the specified key.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves the data at the specified key. The caller must close
	// the reader. Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at the specified key. Idempotent: deleting
	// a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns a URL for accessing the object, presigned for the given
	// duration when the backing store is private.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType is the MIME type of the object. Defaults to
	// application/octet-stream when empty.
	ContentType string

	// MaxSize caps the object size in bytes; ErrTooLarge is returned when
	// the data exceeds it. Zero means no limit.
	MaxSize int64
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// =============================================================================
// Configuration Types
// =============================================================================

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory where files are stored.
	BasePath string

	// BaseURL is the public URL prefix for accessing files,
	// e.g. "http://localhost:8080/files".
	BaseURL string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL is the bucket's public URL when served from a custom
	// domain. If empty, presigned URLs are used for all access.
	PublicURL string
}

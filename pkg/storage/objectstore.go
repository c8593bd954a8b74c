package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore is the key→bytes blob store consumed by the upload pipeline.
// Keys are opaque slash-separated paths; the store has no knowledge of the
// document hierarchy.
type ObjectStore interface {
	// Put uploads content under key, overwriting any existing object.
	Put(ctx context.Context, key string, content io.Reader, contentType string) error

	// Get retrieves the object under key. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Presign returns a time-limited download URL for key.
	Presign(ctx context.Context, key string, ttl time.Duration) (string, error)

	// List returns all objects with the given prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// ObjectInfo describes a stored object as reported by List.
type ObjectInfo struct {
	Key          string
	LastModified time.Time
}

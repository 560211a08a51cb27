// Package blob abstracts object I/O against one bucket of
// S3-compatible storage, so pipeline stages can run against a real
// backend or an in-memory store in tests.
package blob

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned when a requested object does not exist.
// Existence probes translate backend not-found responses into this
// sentinel; every other failure propagates unchanged.
var ErrObjectNotFound = errors.New("object not found")

// Store is the storage surface the pipeline needs. All keys are
// bucket-relative paths using forward slashes.
type Store interface {
	// Exists reports whether an object exists at key. A missing object
	// is (false, nil), not an error.
	Exists(ctx context.Context, key string) (bool, error)

	// Put writes the contents of r to key. size may be -1 when the
	// length is unknown (e.g. a streaming HTTP body). Existing objects
	// are overwritten.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Open returns a reader over the object at key. Returns
	// ErrObjectNotFound if it does not exist.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// List returns the keys of all objects under prefix, in
	// lexicographic order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Ping checks connectivity to the backend.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// ReadAll opens key and reads the whole object into memory.
func ReadAll(ctx context.Context, s Store, key string) ([]byte, error) {
	rc, err := s.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

package storage

import (
	"context"
	"errors"
)

var ErrBlobNotFound = errors.New("blob not found in storage")

// BlobStore keeps small opaque values under string keys, e.g. a user's goal map.
// Implementations must be safe for concurrent use.
type BlobStore interface {
	// Get returns ErrBlobNotFound when nothing was stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces whatever was stored under key.
	Put(ctx context.Context, key string, blob []byte) error
}

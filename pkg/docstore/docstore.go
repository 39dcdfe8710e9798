package docstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Store is a flat document store keyed by slash-separated paths.
// Writes of a single document are atomic; there are no multi-document
// transactions.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	// Keys returns the keys of all documents directly under prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Has(ctx context.Context, key string) (bool, error)
}

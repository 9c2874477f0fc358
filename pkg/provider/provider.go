// Package provider is the client side of the hosted storage service: an
// S3-compatible object store holding the binaries and a SQLite database
// holding the metadata rows.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aryasaputra/journalvault/pkg/types"
)

// ErrNotFound is returned when a record or object does not exist.
var ErrNotFound = errors.New("not found")

// ObjectStore writes, removes and addresses binary objects. A storage key
// has the form "bucket/rest/of/key".
type ObjectStore interface {
	Put(ctx context.Context, storageKey string, body io.ReadSeeker, size int64, contentType string) error
	Remove(ctx context.Context, storageKey string) error
	// PublicURL is deterministic and performs no I/O.
	PublicURL(storageKey string) string
	// SignedURL asks the provider for a time-limited read URL.
	SignedURL(ctx context.Context, storageKey string, ttl time.Duration) (string, error)
}

// MetadataStore persists FileRecord rows.
type MetadataStore interface {
	Insert(ctx context.Context, rec *types.FileRecord) (*types.FileRecord, error)
	Get(ctx context.Context, id int64) (*types.FileRecord, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter types.ListFilter) ([]types.FileRecord, error)
}

// SplitStorageKey separates the bucket from the object key.
func SplitStorageKey(storageKey string) (bucket, key string, err error) {
	bucket, key, ok := strings.Cut(storageKey, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed storage key %q", storageKey)
	}
	return bucket, key, nil
}

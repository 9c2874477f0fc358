// Package resolve turns storage keys into delivery URLs, preferring signed
// time-limited URLs and falling back to deterministic public ones.
package resolve

import (
	"context"
	"log"
	"net/url"
	"time"

	"github.com/aryasaputra/journalvault/pkg/provider"
)

// DefaultTTL is the signed-URL validity window. It must outlive the
// fetch-and-save round trip but stay short enough to limit replay; it is
// never renewed mid-flight.
const DefaultTTL = 60 * time.Second

// AttachmentHint is the query parameter asking the server to respond with
// an attachment disposition. Servers may ignore it.
const AttachmentHint = "download"

type Resolver struct {
	store provider.ObjectStore
	ttl   time.Duration
}

func New(store provider.ObjectStore, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Resolver{store: store, ttl: ttl}
}

// ResolvePublic builds the public URL for a key. Synchronous, no network.
func (r *Resolver) ResolvePublic(storageKey string) string {
	return r.store.PublicURL(storageKey)
}

// ResolveSigned asks the provider for a time-limited URL.
func (r *Resolver) ResolveSigned(ctx context.Context, storageKey string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = r.ttl
	}
	return r.store.SignedURL(ctx, storageKey, ttl)
}

// Resolve returns the preferred delivery URL: signed when the provider
// cooperates, public otherwise. Signing failures are logged and absorbed
// since the public URL may still work; only a malformed storage key yields
// no usable URL at all.
func (r *Resolver) Resolve(ctx context.Context, storageKey string) (string, error) {
	if _, _, err := provider.SplitStorageKey(storageKey); err != nil {
		return "", err
	}
	signed, err := r.ResolveSigned(ctx, storageKey, r.ttl)
	if err == nil {
		return signed, nil
	}
	log.Printf("Signed URL unavailable for %s, falling back to public: %v", storageKey, err)
	return r.ResolvePublic(storageKey), nil
}

// WithAttachmentHint appends the attachment-forcing query parameter. The
// original URL is returned unchanged when it does not parse.
func WithAttachmentHint(rawURL string) string {
	return WithParam(rawURL, AttachmentHint, "1")
}

// WithParam appends an arbitrary query parameter.
func WithParam(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

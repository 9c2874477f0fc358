package resolve

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	signedURL   string
	signErr     error
	signedCalls int
	publicCalls int
	lastTTL     time.Duration
}

func (f *fakeStore) Put(ctx context.Context, storageKey string, body io.ReadSeeker, size int64, contentType string) error {
	return nil
}

func (f *fakeStore) Remove(ctx context.Context, storageKey string) error { return nil }

func (f *fakeStore) PublicURL(storageKey string) string {
	f.publicCalls++
	return "http://store.local/" + storageKey
}

func (f *fakeStore) SignedURL(ctx context.Context, storageKey string, ttl time.Duration) (string, error) {
	f.signedCalls++
	f.lastTTL = ttl
	return f.signedURL, f.signErr
}

func TestResolvePublicDeterministicNoNetwork(t *testing.T) {
	store := &fakeStore{}
	r := New(store, 0)

	first := r.ResolvePublic("journals/2025/08/x.pdf")
	second := r.ResolvePublic("journals/2025/08/x.pdf")
	assert.Equal(t, first, second)
	assert.Equal(t, "http://store.local/journals/2025/08/x.pdf", first)
	assert.Zero(t, store.signedCalls)
}

func TestResolvePrefersSigned(t *testing.T) {
	store := &fakeStore{signedURL: "http://store.local/signed?token=abc"}
	r := New(store, 0)

	url, err := r.Resolve(context.Background(), "journals/x.pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://store.local/signed?token=abc", url)
	assert.Equal(t, 1, store.signedCalls)
	assert.Zero(t, store.publicCalls)
	assert.Equal(t, DefaultTTL, store.lastTTL)
}

func TestResolveFallsBackToPublic(t *testing.T) {
	store := &fakeStore{signErr: errors.New("permission denied")}
	r := New(store, 30*time.Second)

	url, err := r.Resolve(context.Background(), "journals/x.pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://store.local/journals/x.pdf", url)
	assert.Equal(t, 1, store.signedCalls)
	assert.Equal(t, 1, store.publicCalls)
}

func TestResolveSignedPropagatesError(t *testing.T) {
	store := &fakeStore{signErr: errors.New("object not found")}
	r := New(store, 0)

	_, err := r.ResolveSigned(context.Background(), "journals/x.pdf", 0)
	require.Error(t, err)
}

func TestResolveMalformedKey(t *testing.T) {
	r := New(&fakeStore{signedURL: "http://x"}, 0)

	_, err := r.Resolve(context.Background(), "no-bucket-delimiter")
	require.Error(t, err)
}

func TestWithAttachmentHint(t *testing.T) {
	assert.Equal(t, "http://h/x.pdf?download=1", WithAttachmentHint("http://h/x.pdf"))
	// Existing query parameters survive.
	hinted := WithAttachmentHint("http://h/x.pdf?token=abc")
	assert.Contains(t, hinted, "download=1")
	assert.Contains(t, hinted, "token=abc")
}

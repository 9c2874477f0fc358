// Package service implements the upload, listing and delete flows over the
// storage provider pair (object store + metadata database).
package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aryasaputra/journalvault/pkg/provider"
	"github.com/aryasaputra/journalvault/pkg/types"
)

// InconsistentStateError reports the one partial-failure case delete cannot
// roll back: the object is gone but the metadata row could not be removed.
// It is surfaced, never hidden, so the caller can reconcile.
type InconsistentStateError struct {
	Record *types.FileRecord
	Err    error
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("object %s removed but metadata row %d remains: %v",
		e.Record.StorageKey, e.Record.ID, e.Err)
}

func (e *InconsistentStateError) Unwrap() error { return e.Err }

type Journal struct {
	objects  provider.ObjectStore
	metadata provider.MetadataStore
	bucket   string
	maxBytes int64
}

func NewJournal(objects provider.ObjectStore, metadata provider.MetadataStore, bucket string, maxUploadMb int) *Journal {
	return &Journal{
		objects:  objects,
		metadata: metadata,
		bucket:   bucket,
		maxBytes: int64(maxUploadMb) * 1024 * 1024,
	}
}

type UploadInput struct {
	Title        string
	OriginalName string
	MimeType     string
	Data         []byte
}

// Upload validates the file, writes the binary, then inserts the metadata
// row. A failed insert rolls the binary back so no object is ever orphaned
// by a metadata failure.
func (j *Journal) Upload(ctx context.Context, in UploadInput) (*types.FileRecord, error) {
	if j.maxBytes > 0 && int64(len(in.Data)) > j.maxBytes {
		return nil, &types.ValidationError{
			Reason: fmt.Sprintf("file exceeds %d MB limit (%s)", j.maxBytes/(1024*1024), formatSize(int64(len(in.Data)))),
		}
	}

	contentType := in.MimeType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(in.OriginalName))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	}

	key := j.newStorageKey(in.OriginalName)

	if err := j.objects.Put(ctx, key, bytes.NewReader(in.Data), int64(len(in.Data)), contentType); err != nil {
		return nil, err
	}

	rec := &types.FileRecord{
		OriginalName: in.OriginalName,
		StorageKey:   key,
		MimeType:     contentType,
		SizeBytes:    int64(len(in.Data)),
	}
	if title := strings.TrimSpace(in.Title); title != "" {
		rec.Title = &title
	}

	inserted, err := j.metadata.Insert(ctx, rec)
	if err != nil {
		// Roll the binary back so the object store holds no orphan.
		if rmErr := j.objects.Remove(ctx, key); rmErr != nil {
			log.Printf("Rollback of %s failed after insert error: %v", key, rmErr)
		}
		return nil, err
	}
	return inserted, nil
}

// Delete removes the object first and the row second. If the object removal
// fails the row is left untouched; if the row removal fails afterwards the
// inconsistency is reported explicitly.
func (j *Journal) Delete(ctx context.Context, id int64) error {
	rec, err := j.metadata.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := j.objects.Remove(ctx, rec.StorageKey); err != nil {
		return err
	}

	if err := j.metadata.Delete(ctx, id); err != nil {
		return &InconsistentStateError{Record: rec, Err: err}
	}
	return nil
}

func (j *Journal) Get(ctx context.Context, id int64) (*types.FileRecord, error) {
	return j.metadata.Get(ctx, id)
}

func (j *Journal) List(ctx context.Context, filter types.ListFilter) ([]types.FileRecord, error) {
	return j.metadata.List(ctx, filter)
}

// newStorageKey builds "bucket/yyyy/mm/<uuid>.<ext>".
func (j *Journal) newStorageKey(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".bin"
	}
	now := time.Now().UTC()
	return fmt.Sprintf("%s/%d/%02d/%s%s", j.bucket, now.Year(), int(now.Month()), uuid.New().String(), ext)
}

func formatSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}

package types

import (
	"fmt"
	"strings"
	"time"
)

// FileRecord is the metadata row describing one uploaded journal document.
type FileRecord struct {
	ID           int64     `json:"id"`
	Title        *string   `json:"title"`
	OriginalName string    `json:"original_name"`
	StorageKey   string    `json:"storage_key"`
	MimeType     string    `json:"mimetype"`
	SizeBytes    int64     `json:"size"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// DisplayName returns the name shown to the user and used for local saves:
// the trimmed title when present, the original filename otherwise, the last
// segment of the storage key as a last resort.
func (r *FileRecord) DisplayName() string {
	if r.Title != nil {
		if t := strings.TrimSpace(*r.Title); t != "" {
			return t
		}
	}
	if r.OriginalName != "" {
		return r.OriginalName
	}
	key := r.StorageKey
	if i := strings.LastIndex(key, "/"); i >= 0 {
		key = key[i+1:]
	}
	if key == "" {
		key = "download"
	}
	return key
}

// Category is the coarse file classification used for badges and filtering.
type Category string

const (
	CategoryPDF     Category = "pdf"
	CategoryDoc     Category = "doc"
	CategorySheet   Category = "sheet"
	CategoryImage   Category = "img"
	CategoryArchive Category = "zip"
	CategoryOther   Category = "other"
)

// ListFilter narrows and pages a listing. The zero value means everything,
// newest first.
type ListFilter struct {
	Query    string   `json:"query"`
	Category Category `json:"category"`
	Limit    int      `json:"limit"`
	Offset   int      `json:"offset"`
}

// APIResponse is the standard JSON envelope returned by the web layer.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ProviderError wraps any rejection from the storage provider (object store
// or metadata database). Callers treat the cause as opaque.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider: %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ValidationError reports a failed pre-upload check. It is raised before
// any network call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Package classify maps MIME types and filenames to the coarse categories
// used for badges and list filtering.
package classify

import (
	"strings"

	"github.com/aryasaputra/journalvault/pkg/types"
)

var docExts = map[string]bool{"doc": true, "docx": true}
var sheetExts = map[string]bool{"xls": true, "xlsx": true, "csv": true}
var imageExts = map[string]bool{"jpg": true, "jpeg": true, "png": true, "gif": true, "bmp": true, "webp": true}
var archiveExts = map[string]bool{"zip": true, "rar": true, "7z": true, "tar": true, "gz": true}

// Classify returns exactly one category for any mime/filename pair. Matches
// are tested in a fixed priority order and the first hit wins; anything
// unmatched is CategoryOther.
func Classify(mimeType, filename string) types.Category {
	mime := strings.ToLower(mimeType)
	ext := extension(filename)

	switch {
	case strings.Contains(mime, "pdf") || ext == "pdf":
		return types.CategoryPDF
	case strings.Contains(mime, "word") || strings.Contains(mime, "document") || docExts[ext]:
		return types.CategoryDoc
	case strings.Contains(mime, "sheet") || strings.Contains(mime, "excel") || sheetExts[ext]:
		return types.CategorySheet
	case strings.Contains(mime, "image") || imageExts[ext]:
		return types.CategoryImage
	case strings.Contains(mime, "zip") || strings.Contains(mime, "archive") || archiveExts[ext]:
		return types.CategoryArchive
	default:
		return types.CategoryOther
	}
}

// Label returns the short badge text for a category.
func Label(c types.Category) string {
	switch c {
	case types.CategoryPDF:
		return "PDF"
	case types.CategoryDoc:
		return "DOC"
	case types.CategorySheet:
		return "SHEET"
	case types.CategoryImage:
		return "IMG"
	case types.CategoryArchive:
		return "ZIP"
	default:
		return "FILE"
	}
}

// Color returns the badge color name for a category.
func Color(c types.Category) string {
	switch c {
	case types.CategoryPDF:
		return "red"
	case types.CategoryDoc:
		return "blue"
	case types.CategorySheet:
		return "green"
	case types.CategoryImage:
		return "purple"
	case types.CategoryArchive:
		return "yellow"
	default:
		return "gray"
	}
}

func extension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

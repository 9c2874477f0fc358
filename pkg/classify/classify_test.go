package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aryasaputra/journalvault/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		filename string
		expected types.Category
	}{
		{"pdf by mime", "application/pdf", "paper.bin", types.CategoryPDF},
		{"pdf by extension", "application/octet-stream", "paper.PDF", types.CategoryPDF},
		{"word by mime", "application/msword", "notes", types.CategoryDoc},
		{"docx by mime", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "x", types.CategoryDoc},
		{"doc by extension", "", "thesis.docx", types.CategoryDoc},
		{"excel by mime", "application/vnd.ms-excel", "grades", types.CategorySheet},
		{"csv by extension", "text/plain", "grades.csv", types.CategorySheet},
		{"image by mime", "image/png", "scan", types.CategoryImage},
		{"image by extension", "", "scan.JPEG", types.CategoryImage},
		{"zip by mime", "application/zip", "bundle", types.CategoryArchive},
		{"tarball by extension", "application/octet-stream", "bundle.tar", types.CategoryArchive},
		{"unknown", "application/octet-stream", "blob.xyz", types.CategoryOther},
		{"empty inputs", "", "", types.CategoryOther},
		{"no extension", "text/plain", "README", types.CategoryOther},
		{"trailing dot", "", "noext.", types.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.mimeType, tt.filename))
		})
	}
}

// The pdf check outranks every later category, so a PDF-looking mime wins
// even when the extension says archive.
func TestClassifyPriority(t *testing.T) {
	assert.Equal(t, types.CategoryPDF, Classify("application/pdf", "bundle.zip"))
	assert.Equal(t, types.CategoryDoc, Classify("application/msword", "scan.png"))
}

func TestClassifyDeterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.Equal(t, types.CategorySheet, Classify("", "report.xlsx"))
	}
}

func TestLabelAndColorTotal(t *testing.T) {
	cats := []types.Category{
		types.CategoryPDF, types.CategoryDoc, types.CategorySheet,
		types.CategoryImage, types.CategoryArchive, types.CategoryOther,
	}
	for _, c := range cats {
		assert.NotEmpty(t, Label(c))
		assert.NotEmpty(t, Color(c))
	}
	assert.Equal(t, "FILE", Label(types.Category("bogus")))
	assert.Equal(t, "gray", Color(types.Category("bogus")))
}

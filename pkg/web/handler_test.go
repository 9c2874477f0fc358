package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryasaputra/journalvault/pkg/provider"
	"github.com/aryasaputra/journalvault/pkg/resolve"
	"github.com/aryasaputra/journalvault/pkg/service"
	"github.com/aryasaputra/journalvault/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeObjects keeps objects in memory behind a real HTTP server, so the
// delivery endpoints have something to proxy.
type fakeObjects struct {
	objects   map[string][]byte
	srv       *httptest.Server
	removeErr error
}

func newFakeObjects(t *testing.T) *fakeObjects {
	f := &fakeObjects{objects: map[string][]byte{}}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := f.objects[r.URL.Path[1:]]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeObjects) Put(ctx context.Context, storageKey string, body io.ReadSeeker, size int64, contentType string) error {
	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(body); err != nil {
		return err
	}
	f.objects[storageKey] = buf.Bytes()
	return nil
}

func (f *fakeObjects) Remove(ctx context.Context, storageKey string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.objects, storageKey)
	return nil
}

func (f *fakeObjects) PublicURL(storageKey string) string {
	return f.srv.URL + "/" + storageKey
}

func (f *fakeObjects) SignedURL(ctx context.Context, storageKey string, ttl time.Duration) (string, error) {
	return f.srv.URL + "/" + storageKey, nil
}

type fixture struct {
	router  *gin.Engine
	objects *fakeObjects
	journal *service.Journal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	objects := newFakeObjects(t)
	metadata, err := provider.NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { metadata.Close() })

	journal := service.NewJournal(objects, metadata, "journals", 50)
	handlers := NewHandlers(journal, resolve.New(objects, 60*time.Second), 50)
	return &fixture{router: NewRouter(handlers), objects: objects, journal: journal}
}

func (f *fixture) upload(t *testing.T, title, filename, contentType string, data []byte) *types.FileRecord {
	t.Helper()
	rec, err := f.journal.Upload(context.Background(), service.UploadInput{
		Title:        title,
		OriginalName: filename,
		MimeType:     contentType,
		Data:         data,
	})
	require.NoError(t, err)
	return rec
}

func multipartBody(t *testing.T, title, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	if title != "" {
		require.NoError(t, w.WriteField("title", title))
	}
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestListFiles(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "Report", "report.pdf", "application/pdf", []byte("%PDF"))
	f.upload(t, "", "budget.xlsx", "application/vnd.ms-excel", []byte("x"))

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/files", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool        `json:"success"`
		Data    []listEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	// Newest first.
	assert.Equal(t, "budget.xlsx", resp.Data[0].OriginalName)
	assert.Equal(t, types.CategorySheet, resp.Data[0].Category)
	assert.Equal(t, "SHEET", resp.Data[0].Label)
	assert.Equal(t, types.CategoryPDF, resp.Data[1].Category)
}

func TestListFilesSearchAndType(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "Annual Report", "annual.pdf", "application/pdf", []byte("a"))
	f.upload(t, "Report Sheet", "sheet.xlsx", "application/vnd.ms-excel", []byte("b"))

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/files?q=report&type=pdf", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []listEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "annual.pdf", resp.Data[0].OriginalName)
}

func TestUploadEndpoint(t *testing.T) {
	f := newFixture(t)
	body, contentType := multipartBody(t, "Report", "report.pdf", []byte("%PDF-1.7"))

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Success bool             `json:"success"`
		Data    types.FileRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotZero(t, resp.Data.ID)
	assert.Equal(t, int64(8), resp.Data.SizeBytes)
	assert.Len(t, f.objects.objects, 1, "binary stored")
}

func TestUploadRejectsOversized(t *testing.T) {
	objects := newFakeObjects(t)
	metadata, err := provider.NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { metadata.Close() })
	journal := service.NewJournal(objects, metadata, "journals", 1)
	router := NewRouter(NewHandlers(journal, resolve.New(objects, time.Minute), 1))

	body, contentType := multipartBody(t, "", "big.bin", bytes.Repeat([]byte("a"), 2*1024*1024))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, objects.objects, "oversized upload never reaches the store")
}

func TestDeleteEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.upload(t, "Gone", "gone.pdf", "application/pdf", []byte("x"))

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/files/"+itoa(rec.ID), nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	var resp struct {
		Data []listEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
}

func TestDeleteKeepsRowOnStorageFailure(t *testing.T) {
	f := newFixture(t)
	rec := f.upload(t, "Sticky", "sticky.pdf", "application/pdf", []byte("x"))
	f.objects.removeErr = &types.ProviderError{Op: "remove object", Err: errors.New("denied")}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/files/"+itoa(rec.ID), nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)

	got, err := f.journal.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.StorageKey, got.StorageKey)
}

func TestDeleteNotFound(t *testing.T) {
	f := newFixture(t)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/files/999", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadEndpointForcesAttachment(t *testing.T) {
	f := newFixture(t)
	rec := f.upload(t, "Report", "report.pdf", "application/pdf", []byte("%PDF body"))

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/files/"+itoa(rec.ID)+"/download", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="Report"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF body", w.Body.String())
}

func TestViewEndpointInlineByDefault(t *testing.T) {
	f := newFixture(t)
	rec := f.upload(t, "Report", "report.pdf", "application/pdf", []byte("x"))

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/files/"+itoa(rec.ID)+"/view", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inline")
}

func TestViewEndpointHonoursDownloadHint(t *testing.T) {
	f := newFixture(t)
	rec := f.upload(t, "Report", "report.pdf", "application/pdf", []byte("x"))

	for _, hint := range []string{"download=1", "attachment=1"} {
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/files/"+itoa(rec.ID)+"/view?"+hint, nil))
		require.Equal(t, http.StatusOK, w.Code, hint)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment", hint)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

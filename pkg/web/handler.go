// Package web is the presentation layer: a thin gin REST surface wiring
// list, upload, delete and delivery endpoints to the journal service.
package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aryasaputra/journalvault/pkg/classify"
	"github.com/aryasaputra/journalvault/pkg/download"
	"github.com/aryasaputra/journalvault/pkg/provider"
	"github.com/aryasaputra/journalvault/pkg/resolve"
	"github.com/aryasaputra/journalvault/pkg/service"
	"github.com/aryasaputra/journalvault/pkg/types"
)

// listEntry is one row of the listing plus its classification, so clients
// can render badges without re-implementing the classifier.
type listEntry struct {
	types.FileRecord
	Category types.Category `json:"category"`
	Label    string         `json:"label"`
	Color    string         `json:"color"`
}

type Handlers struct {
	journal  *service.Journal
	resolver download.URLResolver
	client   *http.Client
	maxBytes int64
}

func NewHandlers(journal *service.Journal, resolver download.URLResolver, maxUploadMb int) *Handlers {
	return &Handlers{
		journal:  journal,
		resolver: resolver,
		client:   &http.Client{},
		maxBytes: int64(maxUploadMb) * 1024 * 1024,
	}
}

func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")

	api.GET("/files", h.listFiles)
	api.POST("/upload", h.uploadFile)
	api.DELETE("/files/:id", h.deleteFile)
	api.GET("/files/:id/download", h.downloadFile)
	api.GET("/files/:id/view", h.viewFile)
}

func (h *Handlers) listFiles(c *gin.Context) {
	filter := types.ListFilter{
		Query:    c.Query("q"),
		Category: types.Category(c.Query("type")),
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "0")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filter.Offset = offset
	}

	records, err := h.journal.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusBadGateway, types.APIResponse{Error: "Failed to load files"})
		return
	}

	entries := make([]listEntry, 0, len(records))
	for _, rec := range records {
		cat := classify.Classify(rec.MimeType, rec.OriginalName)
		entries = append(entries, listEntry{
			FileRecord: rec,
			Category:   cat,
			Label:      classify.Label(cat),
			Color:      classify.Color(cat),
		})
	}

	c.JSON(http.StatusOK, types.APIResponse{Success: true, Data: entries})
}

func (h *Handlers) uploadFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, types.APIResponse{Error: "No file provided"})
		return
	}

	// Boundary check before the binary is even read.
	if h.maxBytes > 0 && fileHeader.Size > h.maxBytes {
		c.JSON(http.StatusBadRequest, types.APIResponse{
			Error: fmt.Sprintf("File exceeds %d MB limit", h.maxBytes/(1024*1024)),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, types.APIResponse{Error: "Unreadable upload"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.APIResponse{Error: "Unreadable upload"})
		return
	}

	rec, err := h.journal.Upload(c.Request.Context(), service.UploadInput{
		Title:        c.PostForm("title"),
		OriginalName: fileHeader.Filename,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		Data:         data,
	})
	if err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, types.APIResponse{Error: verr.Reason})
			return
		}
		c.JSON(http.StatusBadGateway, types.APIResponse{Error: "Upload failed"})
		return
	}

	c.JSON(http.StatusCreated, types.APIResponse{Success: true, Message: "File uploaded", Data: rec})
}

func (h *Handlers) deleteFile(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.APIResponse{Error: "Invalid file id"})
		return
	}

	err = h.journal.Delete(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, types.APIResponse{Success: true, Message: "File deleted"})
	case errors.Is(err, provider.ErrNotFound):
		c.JSON(http.StatusNotFound, types.APIResponse{Error: "File not found"})
	default:
		var inc *service.InconsistentStateError
		if errors.As(err, &inc) {
			// The object is gone but the row remains; tell the client so
			// it can refresh its list instead of trusting optimistic state.
			c.JSON(http.StatusInternalServerError, types.APIResponse{Error: inc.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, types.APIResponse{Error: "Failed to delete file"})
	}
}

func (h *Handlers) downloadFile(c *gin.Context) {
	h.deliver(c, true)
}

// viewFile serves the file inline, unless a download/attachment query hint
// asks for an attachment disposition.
func (h *Handlers) viewFile(c *gin.Context) {
	forced := c.Query(resolve.AttachmentHint) == "1" || c.Query("attachment") == "1"
	h.deliver(c, forced)
}

func (h *Handlers) deliver(c *gin.Context, asAttachment bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.APIResponse{Error: "Invalid file id"})
		return
	}

	rec, err := h.journal.Get(c.Request.Context(), id)
	if errors.Is(err, provider.ErrNotFound) {
		c.JSON(http.StatusNotFound, types.APIResponse{Error: "File not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, types.APIResponse{Error: "Failed to load file"})
		return
	}

	url, err := h.resolver.Resolve(c.Request.Context(), rec.StorageKey)
	if err != nil {
		c.JSON(http.StatusBadGateway, types.APIResponse{Error: "File is not deliverable"})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, url, nil)
	if err != nil {
		c.JSON(http.StatusBadGateway, types.APIResponse{Error: "File is not deliverable"})
		return
	}
	resp, err := h.client.Do(req)
	if err != nil {
		c.JSON(http.StatusBadGateway, types.APIResponse{Error: "Storage provider unreachable"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.JSON(http.StatusBadGateway, types.APIResponse{Error: "Storage provider rejected the request"})
		return
	}

	disposition := "inline"
	if asAttachment {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, download.SanitizeFilename(rec.DisplayName())))
	c.Header("Content-Type", rec.MimeType)
	c.Status(http.StatusOK)
	io.Copy(c.Writer, resp.Body)
}

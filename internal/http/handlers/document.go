package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	docdomain "github.com/cibilbank/backend/internal/domain/document"
)

const maxUploadSizeBytes = 5 << 20

type DocumentService interface {
	Attach(ctx context.Context, in docdomain.AttachInput) (*docdomain.Attachment, error)
	ListStatus(ctx context.Context, applicationID string) ([]docdomain.Status, error)
	IsComplete(ctx context.Context, applicationID string) (bool, error)
	GetPayload(ctx context.Context, applicationID, docType string) ([]byte, string, error)
}

type DocumentHandler struct {
	documents DocumentService
}

func NewDocumentHandler(documents DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Attach accepts multipart form data { doc_type, doc_no?, file } and
// replaces any prior attachment of the same type.
func (h *DocumentHandler) Attach(c *gin.Context) {
	docType := strings.TrimSpace(c.PostForm("doc_type"))
	if docType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_doc_type"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_file"})
		return
	}
	if file.Size > maxUploadSizeBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file_too_large"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_file"})
		return
	}
	defer src.Close()

	payload, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_file"})
		return
	}

	attachment, err := h.documents.Attach(c.Request.Context(), docdomain.AttachInput{
		ApplicationID: strings.TrimSpace(c.Param("id")),
		DocType:       docType,
		DocNumber:     strings.TrimSpace(c.PostForm("doc_no")),
		FileName:      file.Filename,
		ContentType:   file.Header.Get("Content-Type"),
		Payload:       payload,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attachment": attachment,
		"preview":    "/v1/applications/" + attachment.ApplicationID + "/documents/" + attachment.DocType,
	})
}

func (h *DocumentHandler) ListStatus(c *gin.Context) {
	applicationID := strings.TrimSpace(c.Param("id"))
	statuses, err := h.documents.ListStatus(c.Request.Context(), applicationID)
	if err != nil {
		writeError(c, err)
		return
	}
	complete, err := h.documents.IsComplete(c.Request.Context(), applicationID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": statuses, "complete": complete})
}

func (h *DocumentHandler) Download(c *gin.Context) {
	payload, contentType, err := h.documents.GetPayload(
		c.Request.Context(),
		strings.TrimSpace(c.Param("id")),
		strings.TrimSpace(c.Param("docType")),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, payload)
}

package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appdomain "github.com/cibilbank/backend/internal/domain/application"
)

type ApplicationService interface {
	Create(ctx context.Context, applicantRef string, basicData map[string]any) (*appdomain.Entity, error)
	Get(ctx context.Context, id string) (*appdomain.Entity, error)
	SetStatus(ctx context.Context, id, status, actor string) (*appdomain.Entity, error)
	Delete(ctx context.Context, id string) error
	ListByApplicant(ctx context.Context, applicantRef, email string, limit, offset int32) ([]appdomain.Entity, error)
	List(ctx context.Context, f appdomain.ListFilter) ([]appdomain.Entity, error)
	RecentStatusChanges(ctx context.Context, limit int32) ([]appdomain.StatusChange, error)
}

type ApplicationHandler struct {
	applications ApplicationService
}

func NewApplicationHandler(applications ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

// Create allocates the application id from the first basic-data
// submission. Every later step keys off the returned id.
func (h *ApplicationHandler) Create(c *gin.Context) {
	var basicData map[string]any
	if err := c.ShouldBindJSON(&basicData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	applicantRef := c.GetString("user_id")
	record, err := h.applications.Create(c.Request.Context(), applicantRef, basicData)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"application_id": record.ID, "status": record.Status})
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	record, err := h.applications.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *ApplicationHandler) SetStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	record, err := h.applications.SetStatus(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.Status, c.GetString("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application_id": record.ID, "status": record.Status})
}

func (h *ApplicationHandler) Delete(c *gin.Context) {
	if err := h.applications.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *ApplicationHandler) ListByApplicant(c *gin.Context) {
	limit, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("limit", "50")), 10, 32)
	offset, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("offset", "0")), 10, 32)
	items, err := h.applications.ListByApplicant(
		c.Request.Context(),
		strings.TrimSpace(c.Query("user_id")),
		strings.TrimSpace(c.Query("email")),
		int32(limit), int32(offset),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ApplicationHandler) ListAll(c *gin.Context) {
	page, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("page", "1")), 10, 32)
	limit, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("limit", "50")), 10, 32)
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	items, err := h.applications.List(c.Request.Context(), appdomain.ListFilter{
		Status: strings.TrimSpace(c.Query("status")),
		Limit:  int32(limit),
		Offset: int32((page - 1) * limit),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "page": page, "limit": limit})
}

func (h *ApplicationHandler) RecentStatusChanges(c *gin.Context) {
	limit, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("limit", "50")), 10, 32)
	items, err := h.applications.RecentStatusChanges(c.Request.Context(), int32(limit))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

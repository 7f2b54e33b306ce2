package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cibilbank/backend/internal/domain/steps"
)

type FragmentService interface {
	Save(ctx context.Context, applicationID string, step steps.Step, fields map[string]any) error
	Load(ctx context.Context, applicationID string, step steps.Step) (map[string]any, error)
	Commit(ctx context.Context, applicationID string, step steps.Step) error
}

type SequencerService interface {
	Start() steps.Step
	Resume(ctx context.Context, applicationID string) (steps.Step, error)
	CanAdvance(ctx context.Context, applicationID string, fromStep steps.Step) error
}

type StepsHandler struct {
	fragments FragmentService
	sequencer SequencerService
}

func NewStepsHandler(fragments FragmentService, sequencer SequencerService) *StepsHandler {
	return &StepsHandler{fragments: fragments, sequencer: sequencer}
}

func (h *StepsHandler) SaveFragment(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	applicationID := strings.TrimSpace(c.Param("id"))
	step := steps.Step(strings.TrimSpace(c.Param("step")))
	if err := h.fragments.Save(c.Request.Context(), applicationID, step, fields); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true})
}

func (h *StepsHandler) LoadFragment(c *gin.Context) {
	applicationID := strings.TrimSpace(c.Param("id"))
	step := steps.Step(strings.TrimSpace(c.Param("step")))
	fields, err := h.fragments.Load(c.Request.Context(), applicationID, step)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"step": step, "fields": fields})
}

// CommitStep gates the merge behind the sequencer's required-field
// check, then folds the fragment into the application record.
func (h *StepsHandler) CommitStep(c *gin.Context) {
	applicationID := strings.TrimSpace(c.Param("id"))
	step := steps.Step(strings.TrimSpace(c.Param("step")))

	if err := h.sequencer.CanAdvance(c.Request.Context(), applicationID, step); err != nil {
		writeError(c, err)
		return
	}
	if err := h.fragments.Commit(c.Request.Context(), applicationID, step); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"committed": true, "step": step})
}

func (h *StepsHandler) Resume(c *gin.Context) {
	applicationID := strings.TrimSpace(c.Param("id"))
	if applicationID == "" {
		c.JSON(http.StatusOK, gin.H{"step": h.sequencer.Start()})
		return
	}

	step, err := h.sequencer.Resume(c.Request.Context(), applicationID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"step": step})
}

package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cibilbank/backend/internal/eligibility"
)

type EligibilityService interface {
	CheckEligibility(ctx context.Context, applicant eligibility.ApplicantProfile) ([]eligibility.Offer, error)
	LoanTypes(ctx context.Context) ([]eligibility.LoanType, error)
	RequiredDocuments(ctx context.Context, loanTypeID string) ([]eligibility.DocumentRequirement, error)
}

type EligibilityHandler struct {
	gateway EligibilityService
}

func NewEligibilityHandler(gateway EligibilityService) *EligibilityHandler {
	return &EligibilityHandler{gateway: gateway}
}

func (h *EligibilityHandler) Check(c *gin.Context) {
	var applicant eligibility.ApplicantProfile
	if err := c.ShouldBindJSON(&applicant); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	offers, err := h.gateway.CheckEligibility(c.Request.Context(), applicant)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

func (h *EligibilityHandler) LoanTypes(c *gin.Context) {
	types, err := h.gateway.LoanTypes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loan_types": types})
}

func (h *EligibilityHandler) RequiredDocuments(c *gin.Context) {
	loanTypeID := strings.TrimSpace(c.Query("loan_type_id"))
	if loanTypeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_loan_type_id"})
		return
	}

	reqs, err := h.gateway.RequiredDocuments(c.Request.Context(), loanTypeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"required_docs": reqs})
}

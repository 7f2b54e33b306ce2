package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cibilbank/backend/internal/apperr"
)

// writeError maps the typed error taxonomy onto HTTP responses.
// IncompleteStep additionally carries the machine-readable field list
// the client needs to highlight inputs.
func writeError(c *gin.Context, err error) {
	if incomplete, ok := apperr.IsIncompleteStep(err); ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":          "incomplete_step",
			"step":           incomplete.Step,
			"missing_fields": incomplete.Missing,
		})
		return
	}
	if invalid, ok := apperr.IsInvalidApplicant(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_applicant", "message": invalid.Message})
		return
	}

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, apperr.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file_too_large"})
	case errors.Is(err, apperr.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_type"})
	case errors.Is(err, apperr.ErrMissingDocNumber):
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_doc_number"})
	case errors.Is(err, apperr.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status"})
	case errors.Is(err, apperr.ErrUnknownStep):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_step"})
	case errors.Is(err, apperr.ErrUnknownSection):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_section"})
	case errors.Is(err, apperr.ErrGatewayUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "gateway_unavailable", "retryable": true})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

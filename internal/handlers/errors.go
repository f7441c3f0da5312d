package handlers

import (
	"net/http"

	"github.com/getmentor/mentorship-api/internal/services"
	"github.com/getmentor/mentorship-api/pkg/errors"
	"github.com/gin-gonic/gin"
)

// attachError attaches err to the gin context so the observability middleware
// can include the reason in the request log. c.Error() returns *gin.Error (not
// the error interface), so we suppress errcheck here intentionally.
func attachError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err) //nolint:errcheck
	}
}

// respondError sends an error JSON response and attaches the error to the gin context
// so the observability middleware can include the reason in the request log.
func respondError(c *gin.Context, status int, message string, err error) {
	attachError(c, err)
	c.JSON(status, gin.H{"error": message})
}

// respondErrorWithDetails sends an error response with an additional details field.
func respondErrorWithDetails(c *gin.Context, status int, message string, details any, err error) {
	attachError(c, err)
	c.JSON(status, gin.H{"error": message, "details": details})
}

// respondBindError answers a body that failed to decode or bind
func respondBindError(c *gin.Context, err error) {
	if details := ParseValidationErrors(err); len(details) > 0 {
		respondErrorWithDetails(c, http.StatusBadRequest, "Validation failed", details, err)
		return
	}
	respondError(c, http.StatusBadRequest, "Invalid request body", err)
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is a 500 with defaultMsg.
func respondServiceError(c *gin.Context, err error, defaultMsg string) {
	var de *errors.DomainError
	errors.As(err, &de)

	switch {
	case errors.Is(err, errors.ErrValidation):
		details := []ValidationError{}
		if de != nil && de.Field != "" {
			details = append(details, ValidationError{Field: de.Field, Message: de.Message})
		}
		respondErrorWithDetails(c, http.StatusBadRequest, "Validation failed", details, err)
	case errors.Is(err, errors.ErrNotFound):
		respondError(c, http.StatusNotFound, "Not found", err)
	case errors.Is(err, errors.ErrInvalidStateTransition):
		details := gin.H{}
		if de != nil {
			details["from"] = de.From
			details["to"] = de.To
		}
		respondErrorWithDetails(c, http.StatusConflict, "Invalid status transition", details, err)
	case errors.Is(err, errors.ErrCapacityExceeded):
		respondError(c, http.StatusConflict, "Mentor has no capacity for another student", err)
	case errors.Is(err, errors.ErrConsistencyConflict):
		attachError(c, err)
		c.JSON(http.StatusConflict, gin.H{
			"error":         "Relationship records disagree",
			"manual_review": true,
		})
	case errors.Is(err, errors.ErrPaymentNotApplicable):
		respondError(c, http.StatusUnprocessableEntity, "Payment is not applicable to this session", err)
	case errors.Is(err, errors.ErrConflict):
		respondError(c, http.StatusConflict, "Already exists", err)
	case errors.Is(err, errors.ErrVersionConflict):
		respondError(c, http.StatusConflict, "Concurrent update, please retry", err)
	case errors.Is(err, errors.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, "Invalid credentials", err)
	case errors.Is(err, errors.ErrAccountLocked):
		respondError(c, http.StatusLocked, "Account temporarily locked", err)
	case errors.Is(err, services.ErrAnalysisUnavailable):
		respondError(c, http.StatusServiceUnavailable, "Resume analysis is unavailable", err)
	default:
		respondError(c, http.StatusInternalServerError, defaultMsg, err)
	}
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/pkg/logger"
	"github.com/prohmpiriya/ringside/pkg/response"
)

// handleError maps domain errors to HTTP responses
func handleError(c *gin.Context, err error) {
	if verr, ok := domain.AsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, response.ValidationFailed("validation failed", verr.Fields))
		return
	}

	switch {
	case errors.Is(err, domain.ErrSelectionRequired),
		errors.Is(err, domain.ErrInvalidResult),
		errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
	case errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrInsufficientSeats):
		c.JSON(http.StatusConflict, response.Error(response.ErrCodeCapacityExceeded, err.Error()))
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrDraftSubmitted):
		c.JSON(http.StatusConflict, response.Conflict(err.Error()))
	case errors.Is(err, domain.ErrNotEventOwner):
		c.JSON(http.StatusForbidden, response.Forbidden(err.Error()))
	case errors.Is(err, domain.ErrDraftNotFound),
		errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrZoneNotFound),
		errors.Is(err, domain.ErrMatchNotFound),
		errors.Is(err, domain.ErrWeightClassNotFound),
		errors.Is(err, domain.ErrHoldNotFound):
		c.JSON(http.StatusNotFound, response.NotFound(err.Error()))
	default:
		logger.Get().ErrorContext(c.Request.Context(), "unhandled request error",
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, response.InternalError("internal server error"))
	}
}

// bindError reports a malformed request body
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.BadRequest("invalid request body: "+err.Error()))
}

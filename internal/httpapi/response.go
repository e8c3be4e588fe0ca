package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/lingua/internal/review"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// respondServiceError maps a review error kind onto an HTTP status.
func respondServiceError(c *gin.Context, err error) {
	status, code := statusFor(err)
	respondError(c, status, code, err)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, review.ErrUnknownItem):
		return http.StatusNotFound, "unknown_item"
	case errors.Is(err, review.ErrInvalidOutcome):
		return http.StatusBadRequest, "invalid_outcome"
	case errors.Is(err, review.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, review.ErrConcurrentModification):
		return http.StatusConflict, "concurrent_modification"
	case errors.Is(err, review.ErrTimeout):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, review.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

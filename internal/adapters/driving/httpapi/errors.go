package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

// statusFor maps domain error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrIndexDegraded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrLLMUnavailable),
		errors.Is(err, domain.ErrExtractorUnavailable),
		errors.Is(err, domain.ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrTransientAPI), errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the JSON error body and records err on the context.
func abortWithError(c *gin.Context, err error) {
	c.Error(err) //nolint:errcheck
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ersonp/kin-core/internal/application/handlers"
	"github.com/ersonp/kin-core/internal/domain/graph"
	"github.com/ersonp/kin-core/internal/domain/ports"
	"github.com/ersonp/kin-core/internal/domain/scoring"
)

// APIError is the body of every error response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Error codes.
const (
	CodeInvalidInput       = "invalid_input"
	CodeNotFound           = "not_found"
	CodeSuggestionRejected = "suggestion_rejected"
	CodeNotSuggestable     = "not_suggestable"
	CodeUnavailable        = "unavailable"
	CodeInternal           = "internal"
)

// statusFor maps a handler error onto an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, handlers.ErrInvalidInput),
		errors.Is(err, graph.ErrInvalidDepth),
		errors.Is(err, graph.ErrUnknownView):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, graph.ErrPersonNotFound),
		errors.Is(err, graph.ErrEdgeNotFound),
		errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, scoring.ErrSuggestionRejected):
		return http.StatusConflict, CodeSuggestionRejected
	case errors.Is(err, scoring.ErrNotSuggestable):
		return http.StatusUnprocessableEntity, CodeNotSuggestable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, CodeUnavailable
	}
	return http.StatusInternalServerError, CodeInternal
}

// respondError writes the error envelope. Internal errors are logged by
// the request logger and reported to the client without detail.
func respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	_ = c.Error(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func respondInvalid(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorEnvelope{
		Error: APIError{Message: err.Error(), Code: CodeInvalidInput},
	})
}

// Package handlers translates HTTP requests into core component calls,
// validates DTOs, and maps typed errors to status codes.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"room-reservation-api/internal/apperr"
	"room-reservation-api/internal/dto"
)

var statusByKind = map[apperr.Kind]int{
	apperr.Validation:         http.StatusUnprocessableEntity,
	apperr.Unauthenticated:    http.StatusUnauthorized,
	apperr.Forbidden:          http.StatusForbidden,
	apperr.NotFound:           http.StatusNotFound,
	apperr.Conflict:           http.StatusConflict,
	apperr.PolicyViolation:    http.StatusUnprocessableEntity,
	apperr.TerminalState:      http.StatusUnprocessableEntity,
	apperr.DeadlineExceeded:   http.StatusGatewayTimeout,
	apperr.StorageUnavailable: http.StatusServiceUnavailable,
	apperr.Internal:           http.StatusInternalServerError,
}

// respondError writes the standard {code,message,details?} error body
// for any error returned by a core component.
func respondError(c *gin.Context, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		ae = apperr.Wrap(apperr.Internal, "unexpected error", err)
	}
	status, ok := statusByKind[ae.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	c.JSON(status, dto.ErrorResponse{
		Code:    string(ae.Kind),
		Message: ae.Message,
		Details: ae.Details,
	})
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, apperr.Wrap(apperr.Validation, "malformed request body", err))
		return false
	}
	return true
}

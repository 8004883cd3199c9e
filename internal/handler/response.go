package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"charter/internal/lifecycle"
	"charter/internal/repository"
	"charter/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrBookingNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrMissingField),
		errors.Is(err, service.ErrInvalidBookingID),
		errors.Is(err, service.ErrInvalidCustomerID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidPaymentType),
		errors.Is(err, service.ErrPromoCodeInvalid),
		errors.Is(err, service.ErrUnrecognizedOrderFormat):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrBookingNotPayable),
		errors.Is(err, service.ErrDuplicateCallback),
		errors.Is(err, lifecycle.ErrInvalidTransition):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrDriverNotAssignedToBooking):
		return http.StatusForbidden

	// Service unavailable
	case errors.Is(err, service.ErrNoDriverAvailable),
		errors.Is(err, service.ErrBookingLocked):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/lifecycle"
	"carpool/internal/repository"
	"carpool/internal/service"
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
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidStudentID),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidPaymentID),
		errors.Is(err, service.ErrInvalidLocations),
		errors.Is(err, service.ErrInvalidFare),
		errors.Is(err, service.ErrInvalidCapacity),
		errors.Is(err, service.ErrPickupTimeNotFuture),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidRole):
		return http.StatusBadRequest

	// Authorization errors - Forbidden
	case errors.Is(err, service.ErrNotRideOwner),
		errors.Is(err, service.ErrNoSeatHeld):
		return http.StatusForbidden

	// State conflicts, capacity races and duplicate claims
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, service.ErrRideNotAvailable),
		errors.Is(err, service.ErrRideFull),
		errors.Is(err, service.ErrDuplicateMembership),
		errors.Is(err, service.ErrRideBusy),
		errors.Is(err, service.ErrInvalidPaymentState),
		errors.Is(err, repository.ErrVersionConflict),
		errors.Is(err, repository.ErrDuplicateMembership):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

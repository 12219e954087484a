package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/middleware"
	"carpool/internal/service"
)

// BookingHandler handles HTTP requests for booking lifecycle operations.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// BookSeatResponse is the HTTP response for a successful booking.
type BookSeatResponse struct {
	Ride         RideResponse `json:"ride"`
	MembershipID string       `json:"membership_id,omitempty"`
}

// BookSeat handles POST /v1/rides/:id/book
func (h *BookingHandler) BookSeat(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok || actor.Role != domain.RoleStudent {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "only students can book rides"})
		return
	}

	confirmation, err := h.bookingService.BookSeat(c.Request.Context(), c.Param("id"), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BookSeatResponse{
		Ride:         toRideResponse(confirmation.Ride),
		MembershipID: confirmation.MembershipID,
	})
}

// StartRide handles POST /v1/rides/:id/start
func (h *BookingHandler) StartRide(c *gin.Context) {
	h.driverTransition(c, h.bookingService.StartRide)
}

// CompleteRide handles POST /v1/rides/:id/complete
func (h *BookingHandler) CompleteRide(c *gin.Context) {
	h.driverTransition(c, h.bookingService.CompleteRide)
}

func (h *BookingHandler) driverTransition(c *gin.Context, op func(ctx context.Context, rideID, driverID string) (*domain.Ride, error)) {
	actor, ok := middleware.ActorFrom(c)
	if !ok || actor.Role != domain.RoleDriver {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "only drivers can change ride progress"})
		return
	}

	ride, err := op(c.Request.Context(), c.Param("id"), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CancelRide handles POST /v1/rides/:id/cancel — a driver cancels the whole
// ride, a student releases their own seat.
func (h *BookingHandler) CancelRide(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing actor"})
		return
	}

	ride, err := h.bookingService.CancelRide(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

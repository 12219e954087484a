package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/middleware"
	"carpool/internal/service"
)

// RideHandler handles HTTP requests for the ride catalog.
type RideHandler struct {
	catalogService *service.CatalogService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(catalogService *service.CatalogService) *RideHandler {
	return &RideHandler{catalogService: catalogService}
}

// CreateRideRequest is the HTTP request body for advertising a ride.
type CreateRideRequest struct {
	PickupLocation  string  `json:"pickup_location"`
	DropoffLocation string  `json:"dropoff_location"`
	PickupTime      string  `json:"pickup_time"` // RFC 3339
	Fare            float64 `json:"fare"`
	IsGroup         bool    `json:"is_group"`
	MaxPassengers   int     `json:"max_passengers,omitempty"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID                string  `json:"id"`
	DriverID          string  `json:"driver_id"`
	StudentID         string  `json:"student_id,omitempty"`
	PickupLocation    string  `json:"pickup_location"`
	DropoffLocation   string  `json:"dropoff_location"`
	PickupTime        string  `json:"pickup_time"`
	Fare              float64 `json:"fare"`
	IsGroup           bool    `json:"is_group"`
	MaxPassengers     int     `json:"max_passengers"`
	CurrentPassengers int     `json:"current_passengers"`
	Status            string  `json:"status"`
	CreatedAt         string  `json:"created_at"`
}

func toRideResponse(r *domain.Ride) RideResponse {
	return RideResponse{
		ID:                r.ID,
		DriverID:          r.DriverID,
		StudentID:         r.StudentID,
		PickupLocation:    r.PickupLocation,
		DropoffLocation:   r.DropoffLocation,
		PickupTime:        r.PickupTime.Format(time.RFC3339),
		Fare:              r.Fare,
		IsGroup:           r.IsGroup,
		MaxPassengers:     r.MaxPassengers,
		CurrentPassengers: r.CurrentPassengers,
		Status:            string(r.Status),
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
	}
}

func toRideResponses(rides []*domain.Ride) []RideResponse {
	responses := make([]RideResponse, 0, len(rides))
	for _, r := range rides {
		responses = append(responses, toRideResponse(r))
	}
	return responses
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok || actor.Role != domain.RoleDriver {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "only drivers can advertise rides"})
		return
	}

	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	pickupTime, err := time.Parse(time.RFC3339, req.PickupTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "pickup_time must be RFC 3339"})
		return
	}

	ride, err := h.catalogService.CreateRide(c.Request.Context(), service.CreateRideRequest{
		DriverID:        actor.ID,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		PickupTime:      pickupTime,
		Fare:            req.Fare,
		IsGroup:         req.IsGroup,
		MaxPassengers:   req.MaxPassengers,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// ListAvailable handles GET /v1/rides
func (h *RideHandler) ListAvailable(c *gin.Context) {
	rides, err := h.catalogService.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponses(rides))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.catalogService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// MyRides handles GET /v1/rides/mine — a driver sees the rides they
// advertised, a student the rides they currently hold a seat on.
func (h *RideHandler) MyRides(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing actor"})
		return
	}

	var (
		rides []*domain.Ride
		err   error
	)
	if actor.Role == domain.RoleDriver {
		rides, err = h.catalogService.RidesForDriver(c.Request.Context(), actor.ID)
	} else {
		rides, err = h.catalogService.RidesForStudent(c.Request.Context(), actor.ID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponses(rides))
}

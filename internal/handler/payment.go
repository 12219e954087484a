package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/middleware"
	"carpool/internal/service"
)

// PaymentHandler handles HTTP requests for payment intents.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RecordPaymentIntentRequest is the HTTP request body for recording an intent.
type RecordPaymentIntentRequest struct {
	RideID string `json:"ride_id"`
	Method string `json:"method"` // UPI or CASH
}

// MarkPaymentStatusRequest is the HTTP request body for settling a payment.
type MarkPaymentStatusRequest struct {
	Status string `json:"status"` // COMPLETED or FAILED
}

// PaymentResponse is the HTTP representation of a payment.
type PaymentResponse struct {
	ID        string  `json:"id"`
	RideID    string  `json:"ride_id"`
	StudentID string  `json:"student_id"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID,
		RideID:    p.RideID,
		StudentID: p.StudentID,
		Amount:    p.Amount,
		Method:    string(p.Method),
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

// RecordPaymentIntent handles POST /v1/payments
func (h *PaymentHandler) RecordPaymentIntent(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok || actor.Role != domain.RoleStudent {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "only students record payment intents"})
		return
	}

	var req RecordPaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	payment, err := h.paymentService.RecordPaymentIntent(c.Request.Context(), service.RecordPaymentIntentRequest{
		RideID:    req.RideID,
		StudentID: actor.ID,
		Method:    domain.PaymentMethod(req.Method),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toPaymentResponse(payment))
}

// MarkPaymentStatus handles POST /v1/payments/:id/status
func (h *PaymentHandler) MarkPaymentStatus(c *gin.Context) {
	var req MarkPaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	payment, err := h.paymentService.MarkPaymentStatus(c.Request.Context(), c.Param("id"), domain.PaymentStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// GetPayment handles GET /v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// GetQRPayload handles GET /v1/payments/:id/qr — returns the payload snapshot
// stored at intent creation, exactly as serialized then.
func (h *PaymentHandler) GetQRPayload(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if payment.QRPayload == "" {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "payment has no QR payload"})
		return
	}

	c.Data(http.StatusOK, "application/json", []byte(payment.QRPayload))
}

package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/middleware"
	"carpool/internal/service"
)

// NotificationHandler handles HTTP requests for notification feeds.
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// NotificationResponse is the HTTP representation of a derived notification.
type NotificationResponse struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// GetNotifications handles GET /v1/notifications
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing actor"})
		return
	}

	notifications, err := h.notificationService.ProjectNotifications(c.Request.Context(), actor.ID, actor.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, NotificationResponse{
			Type:      string(n.Kind),
			Message:   n.Message,
			Timestamp: n.Timestamp.Format(time.RFC3339),
		})
	}

	respondJSON(c, http.StatusOK, responses)
}

package api

import (
	"net/http"

	"gestorfit/personal-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationHandler lets any authenticated user read their notifications.
type NotificationHandler struct {
	notificationService service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, err := callerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do usuário inválido no token")
		return
	}

	notifications, err := h.notificationService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// MarkRead flags one of the caller's notifications as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, err := callerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do usuário inválido no token")
		return
	}

	notificationID, err := primitive.ObjectIDFromHex(c.Param("notificationId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador da notificação inválido")
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), userID, notificationID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sucesso": true})
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"patient-portal/internal/notify"
	"patient-portal/internal/utils"
)

// NotificationHandler hands queued notifications to the UI.
type NotificationHandler struct {
	Feed *notify.Feed
}

func NewNotificationHandler(feed *notify.Feed) *NotificationHandler {
	return &NotificationHandler{Feed: feed}
}

// GetNotifications returns and clears the pending notifications.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	utils.Success(c, "Notifications", h.Feed.Drain())
}

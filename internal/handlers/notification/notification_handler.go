// internal/handlers/notification/notification_handler.go
package notification

import (
	"net/http"
	"strconv"

	"whispr-service/internal/middleware"
	"whispr-service/internal/pkg/response"
	notificationService "whispr-service/internal/service/notification"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	svc    *notificationService.Service
	logger *zap.Logger
}

func NewNotificationHandler(svc *notificationService.Service, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, logger: logger}
}

func (h *NotificationHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	items, err := h.svc.List(c.Request.Context(), middleware.MustGetAuthID(c), page, limit)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "notifications fetched", items)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.svc.UnreadCount(c.Request.Context(), middleware.MustGetAuthID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "unread count fetched", gin.H{"unreadCount": n})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.svc.MarkAllRead(c.Request.Context(), middleware.MustGetAuthID(c)); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "notifications marked read", nil)
}

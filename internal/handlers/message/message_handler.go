// internal/handlers/message/message_handler.go
package message

import (
	"net/http"
	"strconv"

	"whispr-service/internal/domain/message"
	"whispr-service/internal/middleware"
	"whispr-service/internal/pkg/response"
	messageService "whispr-service/internal/service/message"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MessageHandler struct {
	svc    *messageService.Service
	logger *zap.Logger
}

func NewMessageHandler(svc *messageService.Service, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{svc: svc, logger: logger}
}

// Send pairs an anonymous whisper with a random recipient.
func (h *MessageHandler) Send(c *gin.Context) {
	var req message.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	m, err := h.svc.Send(c.Request.Context(), middleware.MustGetAuthID(c), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "whisper sent", gin.H{"publicId": m.PublicID})
}

func (h *MessageHandler) Inbox(c *gin.Context) {
	h.list(c, true)
}

func (h *MessageHandler) Sent(c *gin.Context) {
	h.list(c, false)
}

func (h *MessageHandler) list(c *gin.Context, inbox bool) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.svc.List(c.Request.Context(), middleware.MustGetAuthID(c), &message.ListFilter{
		IsInbox: inbox,
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "messages fetched", result)
}

// Feed pages the publicly shared whispers.
func (h *MessageHandler) Feed(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.svc.Feed(c.Request.Context(), page, limit)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "feed fetched", result)
}

// Share publishes a received whisper to the public feed.
func (h *MessageHandler) Share(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid message id", err)
		return
	}

	m, err := h.svc.Share(c.Request.Context(), middleware.MustGetAuthID(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "whisper shared", gin.H{"publicId": m.PublicID, "isShared": m.IsShared})
}

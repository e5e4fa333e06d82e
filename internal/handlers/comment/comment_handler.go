// internal/handlers/comment/comment_handler.go
package comment

import (
	"net/http"
	"strconv"

	"whispr-service/internal/domain/comment"
	"whispr-service/internal/middleware"
	"whispr-service/internal/pkg/response"
	commentService "whispr-service/internal/service/comment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CommentHandler struct {
	svc    *commentService.Service
	logger *zap.Logger
}

func NewCommentHandler(svc *commentService.Service, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{svc: svc, logger: logger}
}

func (h *CommentHandler) Create(c *gin.Context) {
	var req comment.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	created, err := h.svc.Create(c.Request.Context(), middleware.MustGetAuthID(c), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "comment added", created)
}

func (h *CommentHandler) List(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid message id", err)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.svc.List(c.Request.Context(), id, page, limit)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "comments fetched", result)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid comment id", err)
		return
	}

	err = h.svc.Delete(c.Request.Context(), middleware.MustGetAuthID(c), middleware.IsAdmin(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "comment deleted", nil)
}

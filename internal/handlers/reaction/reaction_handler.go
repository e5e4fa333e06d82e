// internal/handlers/reaction/reaction_handler.go
package reaction

import (
	"net/http"
	"strconv"

	"whispr-service/internal/domain/reaction"
	"whispr-service/internal/middleware"
	"whispr-service/internal/pkg/response"
	reactionService "whispr-service/internal/service/reaction"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReactionHandler struct {
	svc    *reactionService.Service
	logger *zap.Logger
}

func NewReactionHandler(svc *reactionService.Service, logger *zap.Logger) *ReactionHandler {
	return &ReactionHandler{svc: svc, logger: logger}
}

func (h *ReactionHandler) React(c *gin.Context) {
	var req reaction.ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	rx, err := h.svc.React(c.Request.Context(), middleware.MustGetAuthID(c), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "reaction saved", rx)
}

func (h *ReactionHandler) Unreact(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid message id", err)
		return
	}

	if err := h.svc.Unreact(c.Request.Context(), middleware.MustGetAuthID(c), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "reaction removed", nil)
}

func (h *ReactionHandler) List(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid message id", err)
		return
	}

	items, err := h.svc.List(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "reactions fetched", items)
}

// internal/handlers/user/user_handler.go
package user

import (
	"net/http"
	"strconv"

	"whispr-service/internal/domain/user"
	"whispr-service/internal/middleware"
	"whispr-service/internal/pkg/response"
	userService "whispr-service/internal/service/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	svc    *userService.Service
	logger *zap.Logger
}

func NewUserHandler(svc *userService.Service, logger *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// Me returns the authenticated account's profile.
func (h *UserHandler) Me(c *gin.Context) {
	profile, err := h.svc.GetProfile(c.Request.Context(), middleware.MustGetAuthID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "profile fetched", profile)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req user.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	profile, err := h.svc.UpdateProfile(c.Request.Context(), middleware.MustGetAuthID(c), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "profile updated", profile)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid user id", err)
		return
	}

	profile, err := h.svc.GetProfile(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "profile fetched", profile)
}

// List pages accounts for the admin surface.
func (h *UserHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.svc.List(c.Request.Context(), &user.ListFilter{
		SearchTerm: c.Query("search"),
		Status:     c.Query("status"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "users fetched", result)
}

type toggleStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active restricted"`
}

// ToggleStatus flips an account between active and restricted. Admin only.
func (h *UserHandler) ToggleStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid user id", err)
		return
	}
	var req toggleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	profile, err := h.svc.ToggleStatus(c.Request.Context(), id, user.Status(req.Status))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "status updated", profile)
}

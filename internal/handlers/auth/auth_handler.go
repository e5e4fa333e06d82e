// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"whispr-service/internal/domain/auth"
	"whispr-service/internal/middleware"
	"whispr-service/internal/pkg/response"
	authService "whispr-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler exposes the authentication surface. Every operation answers
// with the auth envelope at the status the flow decided, including the
// verification-required signal, which is a response, not an error.
type AuthHandler struct {
	svc    *authService.Service
	logger *zap.Logger
}

func NewAuthHandler(svc *authService.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(resp.Status, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(resp.Status, resp)
}

func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req auth.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.svc.AdminLogin(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(resp.Status, resp)
}

func (h *AuthHandler) SocialLogin(c *gin.Context) {
	var req auth.SocialLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.svc.SocialLogin(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(resp.Status, resp)
}

func (h *AuthHandler) VerifyAccount(c *gin.Context) {
	var req auth.VerifyAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.svc.VerifyAccount(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(resp.Status, resp)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req auth.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.svc.ForgotPassword(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(resp.Status, resp)
}

func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req auth.ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.svc.ResendOTP(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(resp.Status, resp)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	token := c.Param("token")
	var req auth.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.svc.ResetPassword(c.Request.Context(), token, &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(resp.Status, resp)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req auth.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.svc.RefreshToken(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(resp.Status, resp)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	authID := middleware.MustGetAuthID(c)
	var req auth.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.svc.ChangePassword(c.Request.Context(), authID, &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(resp.Status, resp)
}

func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	authID := middleware.MustGetAuthID(c)
	var req auth.DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.svc.DeleteAccount(c.Request.Context(), authID, &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(resp.Status, resp)
}

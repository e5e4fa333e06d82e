// internal/app/router.go
package app

import (
	"net/http"

	authHandler "whispr-service/internal/handlers/auth"
	commentHandler "whispr-service/internal/handlers/comment"
	messageHandler "whispr-service/internal/handlers/message"
	notificationHandler "whispr-service/internal/handlers/notification"
	reactionHandler "whispr-service/internal/handlers/reaction"
	reportHandler "whispr-service/internal/handlers/report"
	userHandler "whispr-service/internal/handlers/user"
	wsHandler "whispr-service/internal/handlers/websocket"
	"whispr-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth           *authHandler.AuthHandler
	User           *userHandler.UserHandler
	Message        *messageHandler.MessageHandler
	Reaction       *reactionHandler.ReactionHandler
	Comment        *commentHandler.CommentHandler
	Report         *reportHandler.ReportHandler
	Notification   *notificationHandler.NotificationHandler
	WS             *wsHandler.WebSocketHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.RequestLogger(logger))

	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WS.HandleConnection)

	// ==================== Public Auth Routes ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/register", h.Auth.Register)
		authPublic.POST("/login", h.Auth.Login)
		authPublic.POST("/admin/login", h.Auth.AdminLogin)
		authPublic.POST("/social/login", h.Auth.SocialLogin)
		authPublic.POST("/verify", h.Auth.VerifyAccount)
		authPublic.POST("/forgot-password", h.Auth.ForgotPassword)
		authPublic.POST("/resend-otp", h.Auth.ResendOTP)
		authPublic.POST("/reset-password/:token", h.Auth.ResetPassword)
		authPublic.POST("/refresh", h.Auth.RefreshToken)
	}

	// ==================== Authenticated Auth Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.PUT("/change-password", h.Auth.ChangePassword)
		authProtected.DELETE("/account", h.Auth.DeleteAccount)
	}

	// ==================== Users ====================
	users := api.Group("/users")
	users.Use(h.AuthMiddleware.Auth())
	{
		users.GET("/me", h.User.Me)
		users.PUT("/me", h.User.UpdateProfile)
		users.GET("/:id", h.User.GetUser)
	}

	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		admin.GET("/users", h.User.List)
		admin.PUT("/users/:id/status", h.User.ToggleStatus)
		admin.GET("/reports", h.Report.List)
		admin.PUT("/reports/:id/resolve", h.Report.Resolve)
	}

	// ==================== Messages ====================
	messages := api.Group("/messages")
	messages.Use(h.AuthMiddleware.Auth())
	{
		messages.POST("", h.Message.Send)
		messages.GET("/inbox", h.Message.Inbox)
		messages.GET("/sent", h.Message.Sent)
		messages.GET("/feed", h.Message.Feed)
		messages.POST("/:id/share", h.Message.Share)

		messages.GET("/:id/reactions", h.Reaction.List)
		messages.DELETE("/:id/reactions", h.Reaction.Unreact)
		messages.GET("/:id/comments", h.Comment.List)
	}

	// ==================== Reactions & Comments ====================
	reactions := api.Group("/reactions")
	reactions.Use(h.AuthMiddleware.Auth())
	{
		reactions.POST("", h.Reaction.React)
	}

	comments := api.Group("/comments")
	comments.Use(h.AuthMiddleware.Auth())
	{
		comments.POST("", h.Comment.Create)
		comments.DELETE("/:id", h.Comment.Delete)
	}

	// ==================== Reports ====================
	reports := api.Group("/reports")
	reports.Use(h.AuthMiddleware.Auth())
	{
		reports.POST("", h.Report.Create)
	}

	// ==================== Notifications ====================
	notifications := api.Group("/notifications")
	notifications.Use(h.AuthMiddleware.Auth())
	{
		notifications.GET("", h.Notification.List)
		notifications.GET("/count/unread", h.Notification.UnreadCount)
		notifications.PUT("/read-all", h.Notification.MarkAllRead)
	}
}

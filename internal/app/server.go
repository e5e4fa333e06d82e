// internal/app/server.go
package app

import (
	"context"
	"fmt"

	"whispr-service/internal/config"
	"whispr-service/internal/db"
	authHandler "whispr-service/internal/handlers/auth"
	commentHandler "whispr-service/internal/handlers/comment"
	messageHandler "whispr-service/internal/handlers/message"
	notificationHandler "whispr-service/internal/handlers/notification"
	reactionHandler "whispr-service/internal/handlers/reaction"
	reportHandler "whispr-service/internal/handlers/report"
	userHandler "whispr-service/internal/handlers/user"
	wsHandler "whispr-service/internal/handlers/websocket"
	"whispr-service/internal/middleware"
	"whispr-service/internal/pkg/jwt"
	"whispr-service/internal/repository/postgres"
	authService "whispr-service/internal/service/auth"
	commentService "whispr-service/internal/service/comment"
	"whispr-service/internal/service/email"
	messageService "whispr-service/internal/service/message"
	notificationService "whispr-service/internal/service/notification"
	reactionService "whispr-service/internal/service/reaction"
	reportService "whispr-service/internal/service/report"
	userService "whispr-service/internal/service/user"
	"whispr-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer() *Server {
	cfg := config.Load()
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{cfg: cfg, engine: gin.New()}
}

// Start wires the stores, services and handlers, then serves until the
// context is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	// ----- Logger -----
	var (
		logger *zap.Logger
		err    error
	)
	if s.cfg.Development() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()
	logger.Info("connected to redis")

	// ----- JWT -----
	jwtManager, err := jwt.NewManager(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to build JWT manager: %w", err)
	}

	// ----- Email -----
	sender := email.NewSender(
		s.cfg.SMTPHost,
		s.cfg.SMTPPort,
		s.cfg.SMTPUser,
		s.cfg.SMTPPass,
		s.cfg.SMTPFromName,
		s.cfg.SMTPSecure,
	)
	mailHelper := authService.NewEmailHelper(sender, logger)

	// ----- Repositories -----
	database := postgres.NewDB(pool)
	userRepo := postgres.NewUserRepository(database)
	resetTokenRepo := postgres.NewResetTokenRepository(database)
	messageRepo := postgres.NewMessageRepository(database)
	reactionRepo := postgres.NewReactionRepository(database)
	commentRepo := postgres.NewCommentRepository(database)
	reportRepo := postgres.NewReportRepository(database)
	notificationRepo := postgres.NewNotificationRepository(database)

	// ----- Realtime hub -----
	hub := websocket.NewHub(jwtManager.Verifier, logger)
	go hub.Run(ctx)

	// ----- Services -----
	authSvc := authService.NewService(
		userRepo, resetTokenRepo, mailHelper, jwtManager, redisClient,
		logger, s.cfg.BcryptCost, s.cfg.Development(),
	)
	notificationSvc := notificationService.NewService(notificationRepo, hub, redisClient, logger)
	userSvc := userService.NewService(userRepo, logger)
	messageSvc := messageService.NewService(messageRepo, notificationSvc, logger)
	reactionSvc := reactionService.NewService(reactionRepo, messageRepo, notificationSvc, logger)
	commentSvc := commentService.NewService(commentRepo, messageRepo, notificationSvc, logger)
	reportSvc := reportService.NewService(reportRepo, logger)

	// ----- Handlers -----
	handlers := &Handlers{
		Auth:           authHandler.NewAuthHandler(authSvc, logger),
		User:           userHandler.NewUserHandler(userSvc, logger),
		Message:        messageHandler.NewMessageHandler(messageSvc, logger),
		Reaction:       reactionHandler.NewReactionHandler(reactionSvc, logger),
		Comment:        commentHandler.NewCommentHandler(commentSvc, logger),
		Report:         reportHandler.NewReportHandler(reportSvc, logger),
		Notification:   notificationHandler.NewNotificationHandler(notificationSvc, logger),
		WS:             wsHandler.NewWebSocketHandler(hub, logger),
		AuthMiddleware: middleware.NewAuthMiddleware(jwtManager.Verifier),
	}

	SetupRouter(s.engine, logger, handlers)

	logger.Info("server starting", zap.String("addr", s.cfg.HTTPAddr))
	return s.engine.Run(s.cfg.HTTPAddr)
}

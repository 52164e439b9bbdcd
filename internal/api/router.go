package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liliang-cn/pdfinsight/internal/api/chat"
	"github.com/liliang-cn/pdfinsight/internal/api/middleware"
	"github.com/liliang-cn/pdfinsight/internal/metrics"
	"github.com/liliang-cn/pdfinsight/internal/repository"
	"github.com/liliang-cn/pdfinsight/internal/service"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	Session middleware.SessionConfig
	Chat    chat.Config
}

// SetupRouter sets up the Gin router
func SetupRouter(
	chatService *service.ChatService,
	sessionRepo *repository.SessionRepository,
	recorder *metrics.Recorder,
	logger *zap.Logger,
	cfg RouterConfig,
) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))

	if cfg.Chat.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = cfg.Chat.MaxUploadBytes
	}

	if err := loadTemplates(r); err != nil {
		return nil, err
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if recorder != nil {
		r.GET("/metrics", gin.WrapH(recorder.Handler()))
	}

	chatHandler := chat.NewHandler(cfg.Chat, logger)

	withSession := r.Group("/")
	withSession.Use(middleware.Session(sessionRepo, chatService, cfg.Session, logger))
	chatHandler.RegisterRoutes(withSession)

	apiGroup := withSession.Group("/api/session")
	chatHandler.RegisterAPIRoutes(apiGroup)

	return r, nil
}

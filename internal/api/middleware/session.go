package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liliang-cn/pdfinsight/internal/repository"
	"github.com/liliang-cn/pdfinsight/internal/service"
)

const controllerKey = "pdfinsight.controller"

// SessionConfig holds cookie settings for the session middleware
type SessionConfig struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// Session attaches the caller's controller to the request, starting a new
// session when the cookie is missing or has expired
func Session(repo *repository.SessionRepository, chat *service.ChatService, cfg SessionConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ctrl *service.Controller
		if id, err := c.Cookie(cfg.CookieName); err == nil && id != "" {
			ctrl, _ = repo.Get(id)
		}

		if ctrl == nil {
			ctrl = chat.NewController()
			repo.Save(ctrl)
			logger.Debug("session started", zap.String("session_id", ctrl.ID()))
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cfg.CookieName, ctrl.ID(), int(cfg.MaxAge.Seconds()), "/", "", cfg.Secure, true)
		c.Set(controllerKey, ctrl)

		c.Next()
	}
}

// Controller returns the controller attached by Session
func Controller(c *gin.Context) *service.Controller {
	return c.MustGet(controllerKey).(*service.Controller)
}

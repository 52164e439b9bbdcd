package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/liliang-cn/pdfinsight/internal/api"
	"github.com/liliang-cn/pdfinsight/internal/api/chat"
	"github.com/liliang-cn/pdfinsight/internal/api/middleware"
	"github.com/liliang-cn/pdfinsight/internal/client"
	"github.com/liliang-cn/pdfinsight/internal/config"
	"github.com/liliang-cn/pdfinsight/internal/metrics"
	"github.com/liliang-cn/pdfinsight/internal/pkg/logger"
	"github.com/liliang-cn/pdfinsight/internal/repository"
	"github.com/liliang-cn/pdfinsight/internal/service"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Sync()

	recorder := metrics.New()

	remote := client.New(cfg.Remote.BaseURL,
		client.WithTimeout(cfg.Remote.Timeout),
		client.WithLogger(zlog),
		client.WithMetrics(recorder),
	)

	chatService := service.NewChatService(remote, zlog, recorder)

	sessionRepo := repository.NewSessionRepository(cfg.Session.TTL, cfg.Session.CleanupInterval)
	sessionRepo.OnEvicted(func(id string) {
		zlog.Debug("session expired", zap.String("session_id", id))
	})
	recorder.RegisterGauge("pdfinsight_sessions_active", "Browser sessions currently held in memory.", func() float64 {
		return float64(sessionRepo.Count())
	})

	router, err := api.SetupRouter(chatService, sessionRepo, recorder, zlog, api.RouterConfig{
		Session: middleware.SessionConfig{
			CookieName: cfg.Session.CookieName,
			MaxAge:     cfg.Session.TTL,
			Secure:     cfg.Session.SecureCookie,
		},
		Chat: chat.Config{
			MaxUploadBytes:  cfg.MaxUploadBytes(),
			RefreshInterval: cfg.Server.RefreshInterval,
		},
	})
	if err != nil {
		zlog.Fatal("Failed to set up router", zap.Error(err))
	}

	// No WriteTimeout: ?wait=true requests last as long as the remote call
	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		zlog.Info("Starting PDF Insight",
			zap.String("address", cfg.Address()),
			zap.String("remote", cfg.Remote.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zlog.Info("Server exited")
}

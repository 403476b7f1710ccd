package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/ai360/internal/config"
	"github.com/xxxsen/ai360/internal/handler"
	"github.com/xxxsen/ai360/internal/job"
	"github.com/xxxsen/ai360/internal/middleware"
	"github.com/xxxsen/ai360/internal/repo"
	"github.com/xxxsen/ai360/internal/schedule"
	"github.com/xxxsen/ai360/internal/service"
	"github.com/xxxsen/ai360/internal/session"
)

func runServer(cfg *config.Config, sqliteDB *sql.DB) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logutil.GetLogger(ctx)
	log.Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("account_store", cfg.AccountStore.Type),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("index", cfg.DocQA.Index.Type),
	)

	var accounts repo.AccountStore = repo.NewMemoryAccountRepo()
	if cfg.AccountStore.Type == "sqlite" {
		accounts = repo.NewAccountRepo(sqliteDB)
	}

	manager, cacheRepo, err := buildManager(cfg, sqliteDB)
	if err != nil {
		return err
	}
	pipeline, closeIndex, err := buildPipeline(cfg, manager)
	if err != nil {
		return err
	}
	defer closeIndex()

	sessionStore := session.NewStore(time.Duration(cfg.SessionTTLMinutes) * time.Minute)
	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewSessionSweepJob(sessionStore), "*/5 * * * *"); err != nil {
		return err
	}
	if cacheRepo != nil {
		if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.AI.EmbedCache.MaxAgeDays), "0 3 * * *"); err != nil {
			return err
		}
	}

	secret := []byte(cfg.JWTSecret)
	sessionService := service.NewSessionService()
	deps := handler.RouterDeps{
		Session:       handler.NewSessionHandler(sessionStore, sessionService, secret),
		Auth:          handler.NewAuthHandler(service.NewAuthService(accounts), sessionService),
		Chat:          handler.NewChatHandler(service.NewChatService(manager, manager, pipeline), int64(cfg.DocQA.MaxUploadMB)*1024*1024),
		About:         handler.NewAboutHandler(service.NewAboutService(cfg.About)),
		Sessions:      sessionStore,
		JWTSecret:     secret,
		AuthRateLimit: time.Duration(cfg.AuthRateLimitMs) * time.Millisecond,
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			stop()
		}
	}()
	log.Info("http server listening", zap.String("addr", addr))

	<-ctx.Done()
	log.Info("server stopping...")
	return nil
}

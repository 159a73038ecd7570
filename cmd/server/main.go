// Package main runs the event pre-registration HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/randopony/backend/config"
	"github.com/randopony/backend/internal/auth"
	"github.com/randopony/backend/internal/emaillog"
	"github.com/randopony/backend/internal/events"
	"github.com/randopony/backend/internal/middleware"
	"github.com/randopony/backend/internal/notify"
	"github.com/randopony/backend/internal/riders"
	"github.com/randopony/backend/internal/sheets"
	"github.com/randopony/backend/internal/siteinfo"
	"github.com/randopony/backend/internal/worker"
	"github.com/randopony/backend/pkg/database"
	"github.com/randopony/backend/pkg/queue"
	"github.com/randopony/backend/pkg/redis"
	"github.com/randopony/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	rules := events.NewRules(cfg.Registration)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Events
	eventRepo := events.NewRepository(pool)
	riderRepo := riders.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo, riderRepo, rules,
		cfg.Registration.AdminEmail, cfg.Registration.CaptchaQuestion, logger)

	// Rider registration
	riderService := riders.NewService(riderRepo, jobQueue, rules, cfg.Registration.CaptchaAnswer, logger)
	riderHandler := riders.NewHandler(riderService, eventRepo, logger)

	// Site info (links, email addresses)
	siteRepo := siteinfo.NewRepository(pool)
	siteHandler := siteinfo.NewHandler(siteRepo)

	// Email logs
	emailLogRepo := emaillog.NewRepository(pool)
	emailLogHandler := emaillog.NewHandler(emailLogRepo, jobQueue, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public: event pages and rider pre-registration
	router.GET("/events", eventHandler.List)
	router.GET("/events/:key/:date", eventHandler.Detail)
	router.POST("/events/:key/:date/riders", riderHandler.Register)
	router.GET("/events/:key/:date/rider-emails/:token", eventHandler.RiderEmails)

	// Auth (public)
	router.POST("/auth/login", authHandler.Login)

	// Admin console (JWT required, admin role)
	admin := router.Group("/admin")
	admin.Use(middleware.JWT(jwtService), middleware.RequireRole("admin"))
	{
		admin.GET("/users", authHandler.List)
		admin.POST("/users", authHandler.CreateUser)

		admin.GET("/events", eventHandler.AdminList)
		admin.POST("/events", eventHandler.Create)
		admin.PATCH("/events/:id", eventHandler.Update)
		admin.PUT("/events/:id/google-doc", eventHandler.SetGoogleDoc)

		admin.GET("/events/:id/emails", emailLogHandler.ListByEvent)
		admin.POST("/events/:id/emails/resend", emailLogHandler.Resend)

		admin.PUT("/links/:key", siteHandler.SetLink)
		admin.PUT("/email-addresses/:key", siteHandler.SetEmailAddress)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (notification emails, spreadsheet sync). Runs
	// in-process when EMBEDDED_WORKER=1; otherwise cmd/worker is deployed
	// as its own process.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if os.Getenv("EMBEDDED_WORKER") == "1" {
		var riderListSync worker.RiderListSync
		if cfg.Sheets.CredentialsFile != "" {
			sheetsClient, err := sheets.NewClient(ctx, cfg.Sheets.CredentialsFile)
			if err != nil {
				logger.Warn("spreadsheet sync disabled", zap.Error(err))
			} else {
				riderListSync = sheets.NewSync(sheetsClient)
			}
		}
		mailer := notify.NewSMTPMailer(cfg.Email)
		processor := worker.NewNotificationProcessor(eventRepo, riderRepo, siteRepo,
			emailLogRepo, mailer, riderListSync, jobQueue,
			cfg.Server.BaseURL, cfg.Registration.AdminEmail, logger)
		go processor.Run(workerCtx)
		logger.Info("notification worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

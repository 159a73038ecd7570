// Package main runs the background notification worker (confirmation emails,
// organizer notifications, rider-list spreadsheet sync).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/randopony/backend/config"
	"github.com/randopony/backend/internal/emaillog"
	"github.com/randopony/backend/internal/events"
	"github.com/randopony/backend/internal/notify"
	"github.com/randopony/backend/internal/riders"
	"github.com/randopony/backend/internal/sheets"
	"github.com/randopony/backend/internal/siteinfo"
	"github.com/randopony/backend/internal/worker"
	"github.com/randopony/backend/pkg/database"
	"github.com/randopony/backend/pkg/queue"
	"github.com/randopony/backend/pkg/redis"
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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var riderListSync worker.RiderListSync
	if cfg.Sheets.CredentialsFile != "" {
		sheetsClient, err := sheets.NewClient(ctx, cfg.Sheets.CredentialsFile)
		if err != nil {
			logger.Fatal("sheets", zap.Error(err))
		}
		riderListSync = sheets.NewSync(sheetsClient)
	} else {
		logger.Warn("SHEETS_CREDENTIALS_FILE not set, spreadsheet sync disabled")
	}

	eventRepo := events.NewRepository(pool)
	riderRepo := riders.NewRepository(pool)
	siteRepo := siteinfo.NewRepository(pool)
	emailLogRepo := emaillog.NewRepository(pool)
	mailer := notify.NewSMTPMailer(cfg.Email)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	processor := worker.NewNotificationProcessor(eventRepo, riderRepo, siteRepo,
		emailLogRepo, mailer, riderListSync, jobQueue,
		cfg.Server.BaseURL, cfg.Registration.AdminEmail, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sikayetim/backend/internal/config"
	"github.com/sikayetim/backend/internal/database"
	"github.com/sikayetim/backend/internal/logger"
	"github.com/sikayetim/backend/internal/mailer"
	"github.com/sikayetim/backend/internal/metrics"
	"github.com/sikayetim/backend/internal/realtime"
	"github.com/sikayetim/backend/internal/repository"
	"github.com/sikayetim/backend/internal/server"
	"github.com/sikayetim/backend/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const notificationRetention = 90 * 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.Init(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.Connect(cfg)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zlog.Fatal("Failed to migrate database", zap.Error(err))
	}

	m := metrics.New()

	mail := mailer.New(cfg.SMTP, repository.NewSettingRepository(db))
	mail.OnResult(m.EmailResult)

	// uploads are optional; the rest of the API works without a bucket
	var store storage.ObjectStore
	if minioClient, err := storage.NewMinIOClient(cfg); err != nil {
		zlog.Warn("MinIO unavailable, uploads disabled", zap.Error(err))
	} else {
		store = minioClient
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	srv := server.New(server.Deps{
		Config:  cfg,
		DB:      db,
		Mailer:  mail,
		Store:   store,
		Redis:   rdb,
		Metrics: m,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if rdb != nil {
		bridge := realtime.NewRedisBridge(rdb, uuid.NewString(), srv.Hub)
		go func() {
			if err := bridge.Run(ctx); err != nil {
				zlog.Error("Relay redis bridge stopped", zap.Error(err))
			}
		}()
	}

	go janitor(ctx, db)

	go func() {
		<-ctx.Done()
		zlog.Info("Gracefully shutting down")
		if err := srv.App.ShutdownWithTimeout(10 * time.Second); err != nil {
			zlog.Error("Shutdown failed", zap.Error(err))
		}
	}()

	addr := cfg.App.Host + ":" + cfg.App.Port
	zlog.Info("Server starting", zap.String("addr", addr))
	if err := srv.App.Listen(addr); err != nil {
		zlog.Fatal("Failed to start server", zap.Error(err))
	}

	if rdb != nil {
		_ = rdb.Close()
	}
	if err := database.Close(db); err != nil {
		zlog.Warn("Failed to close database", zap.Error(err))
	}
}

// janitor prunes expired blacklist entries and old notifications once an hour.
func janitor(ctx context.Context, db *gorm.DB) {
	authRepo := repository.NewAuthRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := authRepo.CleanupExpiredBlacklist(); err != nil {
				zap.L().Warn("Blacklist cleanup failed", zap.Error(err))
			} else if n > 0 {
				zap.L().Info("Expired sessions pruned", zap.Int64("count", n))
			}
			if n, err := notificationRepo.DeleteOlderThan(time.Now().Add(-notificationRetention)); err != nil {
				zap.L().Warn("Notification cleanup failed", zap.Error(err))
			} else if n > 0 {
				zap.L().Info("Old notifications pruned", zap.Int64("count", n))
			}
		}
	}
}

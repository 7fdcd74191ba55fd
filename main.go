package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"wildlife-progress/config"
	"wildlife-progress/handlers"
	"wildlife-progress/logger"
	"wildlife-progress/middleware"
	"wildlife-progress/models"
	"wildlife-progress/services"
	"wildlife-progress/storage"
	"wildlife-progress/utils"
	"wildlife-progress/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docs, closeDocs, err := openDocumentStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("failed to open profile storage", "driver", cfg.Storage.Driver, "error", err)
	}
	defer closeDocs()

	progressionService := services.NewProgressionService(
		docs,
		services.MustLevelCalculator(models.DefaultLevelTiers),
		services.MustAchievementCatalog(models.DefaultAchievements),
		services.ProgressionOptions{
			KeyPrefix:          cfg.Storage.KeyPrefix,
			StrictAchievements: cfg.Progress.StrictAchievements,
			StrictDecode:       cfg.Progress.StrictDecode,
		},
		log,
	)

	if cfg.Backup.Enabled() {
		r2, err := utils.NewR2Client(ctx, cfg.Backup.AccountID, cfg.Backup.AccessKeyID, cfg.Backup.AccessKeySecret, cfg.Backup.Bucket)
		if err != nil {
			log.Fatal("failed to initialize R2 client", "error", err)
		}
		backup := workers.NewProfileBackupWorker(docs, cfg.Storage.KeyPrefix, r2, cfg.Backup.Prefix, log)
		if _, err := backup.Start(ctx, cfg.Backup.Interval); err != nil {
			log.Fatal("failed to start profile backups", "error", err)
		}
		log.Info("profile backups scheduled", "interval", cfg.Backup.Interval.String(), "bucket", cfg.Backup.Bucket)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 64 * 1024,
	})

	// Only gateway requests allowed; health checks stay open for the orchestrator.
	app.Use("/user/profile/stream", middleware.SSEQueryAuthMiddleware(log))
	app.Use(middleware.GatewayAuthMiddleware(cfg.Server.ServiceToken, log, "/healthz"))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,OPTIONS,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, Cache-Control",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	handlers.SetupProgressionRoutes(app, progressionService, log, handlers.RouteOptions{})

	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	log.Info("server running",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
		"origins", cfg.Server.AllowedOrigins,
		"strict_achievements", cfg.Progress.StrictAchievements,
	)

	<-ctx.Done()
	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("shutdown", "error", err)
	}
}

// openDocumentStore builds the profile backend named by cfg.Driver. The
// returned close func is always non-nil.
func openDocumentStore(ctx context.Context, cfg config.StorageConfig) (storage.DocumentStore, func(), error) {
	noop := func() {}
	switch cfg.Driver {
	case "memory":
		return storage.NewMemoryStore(), noop, nil
	case "file":
		return storage.NewFileStore(cfg.ProfileDir), noop, nil
	case "postgres", "sqlite":
		var dialector gorm.Dialector
		if cfg.Driver == "postgres" {
			dialector = postgres.Open(cfg.DatabaseURL)
		} else {
			dialector = sqlite.Open(cfg.SQLitePath)
		}
		db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to database: %w", err)
		}
		store, err := storage.NewGormStore(db)
		if err != nil {
			return nil, noop, err
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return store, closeDB, nil
	case "redis":
		store, err := storage.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

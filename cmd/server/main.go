package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"personal-calendar/internal/auth"
	"personal-calendar/internal/config"
	"personal-calendar/internal/database"
	apphttp "personal-calendar/internal/http"
	"personal-calendar/internal/service"
	"personal-calendar/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Config{
		Driver: database.Driver(cfg.Database.Driver),
		DSN:    cfg.Database.DSN,
		Path:   cfg.Database.Path,
	})
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := database.WaitReady(ctx, db, cfg.Database.ConnectAttempts, cfg.Database.ConnectDelay, logger); err != nil {
		logger.Fatalf("%v", err)
	}
	if err := database.Migrate(ctx, db.DB, db.Driver, logger); err != nil {
		logger.Fatalf("migrate database: %v", err)
	}

	repos := db.Repositories()
	userService, err := service.NewUserService(repos.Users, cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatalf("setup user service: %v", err)
	}
	eventService := service.NewEventService(repos.Events)

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}
	exportService := service.NewExportService(eventService, storageSvc, service.PublishConfig{
		Bucket:    cfg.Storage.Bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
		LinkTTL:   cfg.Storage.LinkTTL,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(apphttp.Deps{
		Users:       userService,
		Events:      eventService,
		Exports:     exportService,
		Issuer:      auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		DB:          db,
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins(),
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

// buildStorage returns nil when no bucket is configured; publishing is
// then reported as disabled.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("export publishing disabled (no storage bucket)")
		return nil, nil
	}

	client, err := storage.NewS3Client(ctx, storage.S3Config{
		Region:   cfg.Storage.Region,
		Endpoint: cfg.Storage.Endpoint,
		Profile:  cfg.AWS.Profile,
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}

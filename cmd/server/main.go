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

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"blogboard/internal/auth"
	"blogboard/internal/config"
	apphttp "blogboard/internal/http"
	"blogboard/internal/janitor"
	"blogboard/internal/metrics"
	"blogboard/internal/repository"
	"blogboard/internal/repository/mongo"
	"blogboard/internal/repository/sqlite"
	"blogboard/internal/service"
	"blogboard/internal/storage"
	"blogboard/internal/upload"
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

	userRepo, blogRepo, closeDB, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup database: %v", err)
	}
	defer closeDB()

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := blogRepo.Init(ctx); err != nil {
		logger.Fatalf("init blog repository: %v", err)
	}

	storageSvc, local, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatalf("setup tokens: %v", err)
	}

	userService := service.NewUserService(userRepo)
	blogService := service.NewBlogService(blogRepo, service.BlogOptions{
		EnforceOwnership: cfg.Auth.EnforceOwnership,
		Logger:           logger,
	})
	uploads := upload.NewManager(storageSvc, logger)

	sweeper := janitor.NewSweeper(janitor.Config{
		Interval: cfg.Janitor.Interval,
		Grace:    cfg.Janitor.Grace,
		Logger:   logger,
	}, storageSvc, userRepo, blogRepo)
	if err := sweeper.Start(ctx); err != nil {
		logger.Fatalf("start janitor: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), metrics.Middleware())
	httpOpts := apphttp.Options{
		CookieSecure: cfg.Auth.CookieSecure,
		Logger:       logger,
	}
	if local != nil {
		httpOpts.UploadsDir = local.Dir()
		httpOpts.UploadsPath = local.URLPrefix()
	}
	handler := apphttp.NewHandler(userService, blogService, tokens, uploads, httpOpts)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
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
	sweeper.Shutdown()

	logger.Info("bye")
}

func buildRepositories(ctx context.Context, cfg config.Config, logger *logrus.Logger) (repository.UserRepository, repository.BlogRepository, func(), error) {
	switch cfg.Database.Driver {
	case "mongo":
		client, db, err := mongo.Open(ctx, cfg.Database.URI, cfg.Database.Name)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Infof("using mongo database %s", cfg.Database.Name)
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				logger.Warnf("mongo disconnect: %v", err)
			}
		}
		return mongo.NewUserRepository(db), mongo.NewBlogRepository(db), closeFn, nil
	default:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Infof("using sqlite database %s", cfg.Database.Path)
		closeFn := func() { closeQuietly(db, logger) }
		return sqlite.NewUserRepository(db), sqlite.NewBlogRepository(db), closeFn, nil
	}
}

func closeQuietly(db *sql.DB, logger *logrus.Logger) {
	if err := db.Close(); err != nil {
		logger.Warnf("close database: %v", err)
	}
}

// buildStorage returns the storage backend and, for the local backend, the service to mount statically.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, *storage.LocalService, error) {
	if cfg.Storage.Driver != "s3" {
		local, err := storage.NewLocalService(cfg.Storage.Dir, "/uploads")
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("storing uploads in %s", local.Dir())
		return local, local, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	s3Svc, err := storage.NewS3Service(client, storage.S3Options{
		Bucket:    cfg.Storage.Bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
		URLExpiry: cfg.Storage.URLExpiry,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return s3Svc, nil, nil
}

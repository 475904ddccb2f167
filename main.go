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

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-gallery/internal/analytics"
	analytics_api "ms-gallery/internal/analytics/api"
	"ms-gallery/internal/auth"
	"ms-gallery/internal/auth/auth_api"
	"ms-gallery/internal/config"
	"ms-gallery/internal/database/migrations"
	"ms-gallery/internal/events"
	eventsdb "ms-gallery/internal/events/db"
	"ms-gallery/internal/events/event_api"
	"ms-gallery/internal/images"
	imagesdb "ms-gallery/internal/images/db"
	"ms-gallery/internal/images/image_api"
	"ms-gallery/internal/kafka"
	"ms-gallery/internal/likes"
	likesdb "ms-gallery/internal/likes/db"
	"ms-gallery/internal/likes/like_api"
	likesredis "ms-gallery/internal/likes/redis"
	"ms-gallery/internal/logger"
	"ms-gallery/internal/metrics"
	"ms-gallery/internal/models"
	"ms-gallery/internal/profiles"
	"ms-gallery/internal/sse"
	"ms-gallery/internal/storage"
)

type galleryPublisher interface {
	Publish(ctx context.Context, event models.GalleryEvent) error
}

type eventPublisher interface {
	galleryPublisher
	Close() error
}

// fanout hands every gallery event to each publisher and reports the first failure.
type fanout []galleryPublisher

func (f fanout) Publish(ctx context.Context, event models.GalleryEvent) error {
	var first error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func verifyConnections(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*bun.DB, *redis.Client) {
	if cfg.Database.DSN == "" {
		logger.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.PingContext(ctx)
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		_ = sqldb.Close()
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	logger.Info("DATABASE", "✅ PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}

	logger.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s (DB: %d)", cfg.Redis.Addr, redisClient.Options().DB))
	return bunDB, redisClient
}

func runMigrations(bunDB *bun.DB, cfg config.DatabaseConfig, logger *logger.Logger) {
	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{MigrationsDir: cfg.MigrationsDir}, logger)
	if err := runner.Initialize(); err != nil {
		logger.Fatal("MIGRATION", fmt.Sprintf("Failed to initialize migrations: %v", err))
	}
	if err := runner.RunMigrations(); err != nil {
		logger.Fatal("MIGRATION", fmt.Sprintf("Failed to run migrations: %v", err))
	}
	// closing the runner would close the shared connection pool
}

func newPublisher(ctx context.Context, cfg config.KafkaConfig, logger *logger.Logger) eventPublisher {
	if !cfg.Enabled {
		logger.Warn("KAFKA", "Kafka disabled, gallery events will not be published")
		return kafka.Disabled{}
	}

	producer := kafka.NewProducer(cfg.Brokers, cfg.Topics, logger)
	logger.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for brokers %v", cfg.Brokers))

	if err := kafka.EnsureTopicsExist(ctx, cfg.Brokers, cfg.Topics.All(), logger); err != nil {
		logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		logger.Info("KAFKA", "Required topics ensured successfully")
	}
	return producer
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Gallery Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}
	cfg := config.Load()
	ctx := context.Background()

	logger.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, logger)
	defer bunDB.Close()
	defer redisClient.Close()

	if cfg.Database.AutoMigrate {
		runMigrations(bunDB, cfg.Database, logger)
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal("STORAGE", fmt.Sprintf("Failed to create object store client: %v", err))
	}
	if err := objectStore.EnsureBucket(ctx, cfg.Storage.CreateBucket); err != nil {
		// uploads fail with bucket_not_found; external URL submissions still work
		logger.Warn("STORAGE", fmt.Sprintf("Bucket %s unavailable: %v", objectStore.Bucket(), err))
	}

	bus := newPublisher(ctx, cfg.Kafka, logger)
	defer bus.Close()
	feed := sse.NewModerationFeed()
	publisher := fanout{bus, feed}

	userVerifier, err := auth.NewOIDCVerifier(ctx, cfg.Auth.OIDCIssuer)
	if err != nil {
		logger.Fatal("AUTH", fmt.Sprintf("Failed to set up user session verification: %v", err))
	}
	adminGate, err := auth.NewAdminGate(cfg.Admin, auth.NewRedisSessionStore(redisClient))
	if err != nil {
		logger.Fatal("AUTH", fmt.Sprintf("Failed to set up admin gate: %v", err))
	}
	magicLinks := &auth.MagicLinkClient{
		BaseURL:     cfg.Auth.MagicLinkURL,
		APIKey:      cfg.Auth.MagicLinkAPIKey,
		RedirectURL: cfg.Auth.MagicLinkRedirect,
		Client:      &http.Client{Timeout: 10 * time.Second},
		Logger:      logger,
	}

	appMetrics := metrics.NewMetrics()
	profileDB := &profiles.DB{Bun: bunDB}

	likeService := likes.NewLikeService(
		&likesdb.DB{Bun: bunDB},
		likesredis.NewToggleGuard(redisClient, cfg.Likes.ToggleGuardTTL, logger),
		publisher,
		appMetrics,
		logger,
	)

	imageService := images.NewImageService(
		&imagesdb.DB{Bun: bunDB},
		profileDB,
		objectStore,
		likeService,
		publisher,
		appMetrics,
		logger,
	)
	if cfg.Uploads.MaxBatchImages > 0 {
		imageService.MaxBatchImages = cfg.Uploads.MaxBatchImages
	}

	eventService := events.NewEventService(&eventsdb.DB{Bun: bunDB}, objectStore, publisher, logger)
	eventService.QR = events.NewQRGenerator(cfg.Server.PublicSiteURL)
	analyticsService := analytics.NewService(analytics.NewDB(bunDB))

	logger.Info("HTTP", "Setting up router and middleware")
	router := newRouter(routerDeps{
		Logger:         logger,
		Metrics:        appMetrics,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Users:          userVerifier,
		Admin:          adminGate,
		Auth:           auth_api.NewHandler(magicLinks, adminGate, profileDB, logger),
		Events:         event_api.NewHandler(eventService, cfg.Uploads.MaxUploadBytes),
		Images:         image_api.NewHandler(imageService, cfg.Uploads.MaxUploadBytes),
		Likes:          like_api.NewHandler(likeService),
		Analytics:      analytics_api.NewHandler(analyticsService, logger),
		Feed:           sse.NewHandler(feed, logger),
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Gallery Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Gallery Service shutdown complete")
	}
}

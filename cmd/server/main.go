package main

import (
	"alcyxob/fittrack/internal/api"
	"alcyxob/fittrack/internal/auth"
	"alcyxob/fittrack/internal/config"
	"alcyxob/fittrack/internal/db"
	"alcyxob/fittrack/internal/generator"
	"alcyxob/fittrack/internal/logging"
	"alcyxob/fittrack/internal/metrics"
	"alcyxob/fittrack/internal/repository"
	"alcyxob/fittrack/internal/repository/mongo"
	"alcyxob/fittrack/internal/repository/sqldb"
	"alcyxob/fittrack/internal/service"
	"alcyxob/fittrack/internal/storage"
	"alcyxob/fittrack/internal/workout"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// @title Fittrack API
// @version 1.0
// @description Workout programs, live workout sessions and training statistics.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the login token.
func main() {
	configPath := "."
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	// --- Configuration ---
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	environment := "development"
	if cfg.Server.ReleaseMode {
		environment = "production"
	}
	cleanupLogging := logging.Setup(logging.SetupParams{
		LogFileName:   cfg.Logging.File,
		LogToStdout:   cfg.Logging.Stdout,
		LogLevel:      cfg.Logging.Level,
		LogFormatJSON: cfg.Logging.JSON,
		Environment:   environment,
		SentryDSN:     cfg.Logging.SentryDSN,
	})
	defer cleanupLogging()
	log.Infoln("starting fittrack server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Data store ---
	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("could not open %s store: %v", cfg.Database.Driver, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Errorf("failed to close store: %v", err)
		}
	}()

	// --- Credentials ---
	credentials, closeCredentials, err := newCredentialStore(ctx, &cfg)
	if err != nil {
		log.Fatalf("could not set up credential store: %v", err)
	}
	defer closeCredentials()

	issuer, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret)
	if err != nil {
		log.Fatalf("could not set up token issuer: %v", err)
	}
	authenticator := auth.NewAuthenticator(issuer, credentials, cfg.Auth.SessionTTL)

	// --- Metrics ---
	registry := metrics.NewRegistry()
	metricsManager := metrics.NewManager("server", registry)

	// --- Optional integrations ---
	var files storage.FileStorage
	if cfg.S3.BucketName != "" {
		files, err = storage.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			log.Fatalf("could not set up S3 storage: %v", err)
		}
	} else {
		log.Warnln("s3.bucket_name is empty, history export is disabled")
	}

	var programGenerator generator.Generator
	if cfg.OpenAI.APIKey != "" {
		programGenerator, err = generator.NewOpenAIGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
		if err != nil {
			log.Fatalf("could not set up program generator: %v", err)
		}
	} else {
		log.Warnln("openai.api_key is empty, program generation is disabled")
	}

	loc, err := cfg.Stats.Location()
	if err != nil {
		log.Fatalf("invalid stats timezone: %v", err)
	}

	// --- Services ---
	trackers := workout.NewRegistry(time.Now)
	metricsManager.ObserveActiveTrackers(trackers.Len)
	go trackers.Run(ctx, cfg.Tracker.SweepInterval, cfg.Tracker.IdleTTL)

	statsService := service.NewStatsService(store, loc, time.Now)
	services := api.Services{
		Auth:     service.NewAuthService(store.Users, authenticator),
		Exercise: service.NewExerciseService(store.Exercises),
		Program:  service.NewProgramService(store, programGenerator, metricsManager),
		Session:  service.NewSessionService(store, trackers, metricsManager),
		Stats:    statsService,
		Export:   service.NewExportService(store, files, statsService, cfg.S3.PresignExpiry),
	}

	// --- HTTP ---
	if cfg.Server.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, services, api.RouterOptions{
		Cookie:   api.CookieConfig{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure},
		Metrics:  metricsManager,
		Gatherer: registry,
	})

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		// No WriteTimeout: rest countdowns are streamed for minutes.
	}

	go func() {
		log.Infof("server listening on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("listen and serve: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Infoln("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server forced to shut down: %v", err)
	}
	log.Infoln("server exited")
}

// openStore connects the configured backend and prepares its schema.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (*repository.Store, error) {
	switch cfg.Driver {
	case "mongo":
		client, err := mongo.ConnectDB(cfg.URI)
		if err != nil {
			return nil, err
		}
		database := client.Database(cfg.Name)

		indexCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		mongo.EnsureIndexes(indexCtx, database)
		return mongo.NewStore(client, database), nil

	case db.DriverPostgres, db.DriverSQLite:
		conn, err := db.Init(cfg.Driver, cfg.URI)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(conn.DB, cfg.Driver); err != nil {
			_ = db.Close(conn)
			return nil, err
		}
		return sqldb.NewStore(conn), nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// newCredentialStore prefers Redis so credentials survive restarts and are
// shared between instances.
func newCredentialStore(ctx context.Context, cfg *config.Config) (auth.CredentialStore, func(), error) {
	if cfg.Redis.Address == "" {
		log.Warnln("redis.address is empty, credentials are kept in process memory")
		return auth.NewLocalStore(cfg.Auth.LocalCacheSize), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	log.WithField("address", cfg.Redis.Address).Infoln("redis credential store connected")

	return auth.NewRedisStore(rdb), func() {
		if err := rdb.Close(); err != nil {
			log.Errorf("failed to close redis client: %v", err)
		}
	}, nil
}

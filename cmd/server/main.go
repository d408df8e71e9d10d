package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/federated"
	grpcAdapter "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/grpc"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/handler"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/middleware"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/router"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/mailer"
	natsAdapter "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/repository/cache"
	mongoRepo "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/repository/mongodb"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/storage/s3"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/config"
	identity "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/domain"
	authUsecase "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/usecase"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	listingUsecase "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/usecase"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/tracer"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/security"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.NewLogger(logger.DefaultConfig()).Fatal("Failed to load configuration", zap.Error(err))
	}

	appLogger := logger.NewLogger(logger.LoggerConfig{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer func() { _ = appLogger.Sync() }()

	serviceName := cfg.ServiceName
	appLogger.Info("Application starting...", zap.String("service_name", serviceName))
	appLogger.Info("Configuration loaded successfully",
		zap.String("http_port", cfg.HTTP.Port),
		zap.String("grpc_port", cfg.GRPC.Port),
		zap.String("metrics_port", cfg.Metrics.Port),
		zap.String("nats_url", cfg.NATS.URL),
		zap.Bool("federated_enabled", cfg.Auth.Federated.JWKSURL != ""),
		zap.Bool("smtp_enabled", cfg.SMTP.Host != ""),
	)
	if cfg.InsecureJWTSecret() {
		appLogger.Warn("auth.jwt_secret is the built-in default; set MARKET_AUTH_JWT_SECRET in production")
	}

	tp := tracer.InitTracer(serviceName, cfg.Tracing.OTLPEndpoint, appLogger)
	defer func() {
		ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := tp.Shutdown(ctxShutdown); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	metricsManager := metrics.NewMetricsManager(serviceName)

	// Storage
	mongoClient, err := mongoRepo.NewMongoDBConnection(cfg.Mongo)
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		appLogger.Info("Disconnecting from MongoDB...")
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	db := mongoClient.Database(cfg.Mongo.Database)
	appLogger.Info("Successfully connected and pinged MongoDB.", zap.String("database", cfg.Mongo.Database))

	listingRepo := mongoRepo.NewListingRepository(db, appLogger)
	profileRepo := mongoRepo.NewProfileRepository(db, appLogger)
	credentialRepo := mongoRepo.NewCredentialRepository(db, appLogger)

	redisClient, err := cache.NewRedisClient(cfg.Redis, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	listingCache := cache.NewListingCache(redisClient, cfg.Redis.ListingTTL, cfg.Redis.ApprovedTTL, metricsManager, appLogger)
	tokenStore := cache.NewTokenStore(redisClient)

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	mediaStore, err := s3.NewS3Storage(initCtx, cfg.MinIO, appLogger)
	if err != nil {
		cancelInit()
		appLogger.Fatal("Failed to initialize media storage", zap.Error(err))
	}

	// Messaging and notifications
	natsPublisher, err := natsAdapter.NewPublisher(cfg.NATS, appLogger, serviceName)
	if err != nil {
		cancelInit()
		appLogger.Fatal("Failed to initialize NATS publisher", zap.Error(err))
	}
	defer natsPublisher.Close()

	var notifier domain.Notifier
	if cfg.SMTP.Host != "" {
		notifier = mailer.NewSMTPMailer(cfg.SMTP, appLogger)
		appLogger.Info("Moderation e-mail notifications enabled", zap.String("smtp_host", cfg.SMTP.Host))
	}

	var federatedVerifier identity.FederatedVerifier
	if cfg.Auth.Federated.JWKSURL != "" {
		v, err := federated.NewJWKSVerifier(context.Background(), cfg.Auth.Federated, appLogger)
		if err != nil {
			cancelInit()
			appLogger.Fatal("Failed to initialize federated token verifier", zap.Error(err))
		}
		federatedVerifier = v
	}
	cancelInit()

	// Usecases
	limits := domain.DefaultLimits()
	limits.MaxImages = cfg.Listing.MaxImages
	limits.MaxImageBytes = cfg.Listing.MaxImageBytes

	listings := listingUsecase.NewListingUsecase(
		listingRepo,
		mediaStore,
		listingCache,
		natsPublisher,
		notifier,
		security.NewTextSanitizer(),
		metricsManager,
		limits,
		appLogger,
	)
	auth := authUsecase.NewAuthUsecase(
		profileRepo,
		credentialRepo,
		tokenStore,
		federatedVerifier,
		authUsecase.NewTokenIssuer(cfg.Auth.JWTSecret, serviceName, cfg.Auth.TokenTTL),
		cfg.Auth.IdentityCacheMax,
		cfg.Auth.IdentityCacheTTL,
		appLogger,
	)

	// HTTP
	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimit > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst)
	}
	httpHandler := router.New(router.Deps{
		Auth:          handler.NewAuthHandler(auth, metricsManager, appLogger),
		Listings:      handler.NewListingHandler(listings, limits, metricsManager, appLogger),
		Authenticator: auth,
		Metrics:       metricsManager,
		RateLimiter:   rateLimiter,
		UploadTimeout: cfg.Listing.UploadTimeout,
		Logger:        appLogger,
	})

	writeTimeout := cfg.HTTP.WriteTimeout
	if cfg.Listing.UploadTimeout >= writeTimeout {
		writeTimeout = cfg.Listing.UploadTimeout + 5*time.Second
	}
	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           httpHandler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      writeTimeout,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.HTTP.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server ListenAndServe error", zap.Error(err))
		}
	}()

	// gRPC (health and reflection)
	lis, err := net.Listen("tcp", ":"+cfg.GRPC.Port)
	if err != nil {
		appLogger.Fatal("Failed to listen for gRPC", zap.String("port", cfg.GRPC.Port), zap.Error(err))
	}
	grpcSrv := grpcAdapter.NewServer(appLogger)
	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", cfg.GRPC.Port))
		if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			appLogger.Fatal("gRPC server Serve error", zap.Error(err))
		}
	}()

	go func() {
		if err := metrics.StartMetricsServer(cfg.Metrics.Port, appLogger, metricsManager.Registry); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Prometheus metrics server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	grpcSrv.MarkNotServing()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	appLogger.Info("HTTP server stopped.")

	grpcSrv.GracefulStop()
	appLogger.Info("gRPC server stopped.")

	appLogger.Info("Application shutting down...")
}

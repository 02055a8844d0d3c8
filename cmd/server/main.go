package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/Abdurahmanit/GroupProject/media-service/internal/adapter/http"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/adapter/repository/cache"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/adapter/repository/mongodb"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/adapter/storage/s3"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/mailer"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/media/usecase"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/tracer"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const serviceName = "media_service"

func main() {
	log := logger.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	tp := tracer.InitTracer(serviceName, cfg.OTLPEndpoint, log)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Warn("Failed to shut down tracer provider", zap.Error(err))
		}
	}()

	mm := metrics.NewMetricsManager(serviceName)
	go func() {
		if err := metrics.StartMetricsServer(cfg.MetricsPort, log, mm.Registry); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server stopped", zap.Error(err))
		}
	}()

	// Connect to MongoDB
	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn("Failed to disconnect from MongoDB", zap.Error(err))
		}
	}()
	db := mongoClient.Database(cfg.MongoDB)

	// Repositories
	imageRepo, err := mongodb.NewImageAssetRepository(db, log)
	if err != nil {
		log.Fatal("Failed to initialize image asset repository", zap.Error(err))
	}
	verificationRepo, err := mongodb.NewVerificationRepository(db, log)
	if err != nil {
		log.Fatal("Failed to initialize verification repository", zap.Error(err))
	}
	listingRepo := mongodb.NewListingRepository(db, log)

	// Object storage (MinIO/S3)
	storageClient, err := s3.NewS3Storage(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, log)
	if err != nil {
		log.Fatal("Failed to initialize storage", zap.Error(err))
	}

	// Per-scope lock (Redis)
	locker, err := cache.NewScopeLocker(cfg.RedisAddress, log)
	if err != nil {
		log.Fatal("Failed to initialize scope locker", zap.Error(err))
	}
	defer locker.Close()

	// NATS publisher
	natsPublisher, err := nats.NewPublisher(cfg.NATSURL, log, serviceName)
	if err != nil {
		log.Fatal("Failed to initialize NATS publisher", zap.Error(err))
	}
	defer natsPublisher.Close()

	notifier := mailer.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword, cfg.NotifyRelayEmail)

	// Usecases
	uploadUC := usecase.NewUploadUsecase(imageRepo, storageClient, locker, natsPublisher, mm, log)
	verificationUC := usecase.NewVerificationUsecase(verificationRepo, listingRepo, storageClient, natsPublisher, notifier, mm, log)
	reaperUC := usecase.NewReaperUsecase(imageRepo, storageClient, mm, log)

	reaperTTL := time.Duration(cfg.ReaperTTLHours) * time.Hour
	handler := httpadapter.NewMediaHandler(uploadUC, verificationUC, reaperUC, reaperTTL, mm, log)
	router := httpadapter.NewRouter(handler, cfg.JWTSecret, mm, log)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	// Background reaper loop
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	go func() {
		interval := time.Duration(cfg.ReaperIntervalHours) * time.Hour
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-reaperCtx.Done():
				return
			case <-ticker.C:
				sweepCtx, cancel := context.WithTimeout(reaperCtx, 5*time.Minute)
				if _, err := reaperUC.Sweep(sweepCtx, reaperTTL); err != nil {
					log.Error("Reaper sweep failed", zap.Error(err))
				}
				cancel()
			}
		}
	}()

	go func() {
		log.Info("Media service HTTP server starting", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down media service...")
	stopReaper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	log.Info("Media service stopped")
}

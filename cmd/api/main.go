package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"albaranes-api/internal/config"
	"albaranes-api/internal/db"
	"albaranes-api/internal/email"
	apihttp "albaranes-api/internal/http"
	"albaranes-api/internal/logging"
	"albaranes-api/internal/repository"
	"albaranes-api/internal/service"
	"albaranes-api/internal/storage"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	notifier := logging.NewWebhookNotifier(logger, cfg.LogWebhookURL)
	defer notifier.Close()

	mongoClient, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("mongo connect", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)
	database := mongoClient.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		logger.Fatal("ensure indexes", zap.Error(err))
	}

	userRepo := repository.NewMongoUserRepository(database)
	clientRepo := repository.NewMongoClientRepository(database)
	projectRepo := repository.NewMongoProjectRepository(database)
	noteRepo := repository.NewMongoDeliveryNoteRepository(database)
	storageRepo := repository.NewMongoStorageRepository(database)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}
	dispatcher := email.NewDispatcher(logger, emailSender, 0)
	defer dispatcher.Close()

	var codeLimiter service.CodeRateLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			codeLimiter = service.NewRedisCodeRateLimiter(redisClient, 10*time.Minute, 3)
		}
		cancel()
	}

	uploader := storage.NewDisabledUploader("storage uploader not configured")
	switch cfg.StorageBackend {
	case "minio":
		minioUploader, err := storage.NewMinioUploader(storage.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			logger.Warn("minio uploader init failed", zap.Error(err))
			break
		}
		if err := minioUploader.EnsureBucket(ctx); err != nil {
			logger.Warn("minio ensure bucket failed", zap.Error(err))
		}
		uploader = minioUploader
	case "pinata":
		pinataUploader, err := storage.NewPinataUploader(cfg.PinataJWT, cfg.PinataGatewayURL)
		if err != nil {
			logger.Warn("pinata uploader init failed", zap.Error(err))
			break
		}
		uploader = pinataUploader
	default:
		logger.Warn("unknown storage backend", zap.String("backend", cfg.StorageBackend))
	}

	tokenSvc := service.NewTokenService(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)
	userSvc := service.NewUserService(logger, userRepo, emailSender, dispatcher, codeLimiter, uploader, cfg.FrontendURL)
	clientSvc := service.NewClientService(logger, clientRepo, uploader)
	projectSvc := service.NewProjectService(logger, projectRepo, clientRepo)
	noteSvc := service.NewDeliveryNoteService(logger, noteRepo, clientRepo, projectRepo, userRepo, uploader)
	storageSvc := service.NewStorageService(logger, storageRepo, uploader)

	handlers := apihttp.Handlers{
		Auth:         apihttp.NewAuthHandler(logger, userSvc, tokenSvc),
		User:         apihttp.NewUserHandler(logger, userSvc),
		Client:       apihttp.NewClientHandler(logger, clientSvc),
		Project:      apihttp.NewProjectHandler(logger, projectSvc),
		DeliveryNote: apihttp.NewDeliveryNoteHandler(logger, noteSvc),
		Storage:      apihttp.NewStorageHandler(logger, storageSvc),
		Mail:         apihttp.NewMailHandler(logger, emailSender),
	}
	router := apihttp.NewRouter(logger, notifier, tokenSvc, userRepo, handlers)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

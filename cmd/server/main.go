package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"multisign-server/config"
	_ "multisign-server/docs"
	"multisign-server/internal/handler"
	"multisign-server/internal/ports"
	"multisign-server/internal/repository"
	"multisign-server/internal/repository/migrations"
	"multisign-server/internal/security"
	"multisign-server/internal/service"
	"multisign-server/internal/signing"
	"multisign-server/internal/util"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title Multisign-server
// @version 1.0
// @description REST API для подписания документов несколькими участниками

// @host localhost:8080

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configPath := os.Getenv("MULTISIGN_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger, err := util.InitLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	store, closeStore := setupMetadataStore(cfg)
	defer closeStore()

	content := setupContentStore(ctx, cfg)

	signAPI, err := signing.NewClientFromConfig(&cfg.SignAPI)
	if err != nil {
		zap.L().Fatal("Ошибка настройки клиента сервиса подписи", zap.Error(err))
	}

	docService := service.NewDocumentService(store, content, signAPI, &cfg.Documents)

	srv, router := config.SetupServer(cfg.ServerAddr)
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	jwtService := security.NewJWTService(&cfg.JWT)
	handler.RegisterRoutes(router, handler.NewDocumentHandler(docService), jwtService)

	if cfg.Documents.MaxAge > 0 {
		go service.RunSweeper(ctx, docService,
			time.Duration(cfg.Documents.SweepInterval)*time.Minute,
			time.Duration(cfg.Documents.MaxAge)*time.Hour)
	}

	runServer(ctx, srv)
}

// setupMetadataStore : SQL или Redis в зависимости от storage.metadata
func setupMetadataStore(cfg *config.AppConfig) (ports.MetadataStore, func()) {
	lockTimeout := time.Duration(cfg.Documents.LockTimeout) * time.Second

	if cfg.Storage.Metadata == "redis" {
		redisClient, err := config.SetupRedis(&cfg.RedisConfig)
		if err != nil {
			zap.L().Fatal("Ошибка подключения к Redis", zap.Error(err))
		}
		return repository.NewRedisRepository(redisClient, lockTimeout), func() {
			if err := redisClient.Close(); err != nil {
				zap.L().Error("Ошибка при закрытии Redis", zap.Error(err))
			}
		}
	}

	if cfg.DatabaseConfig.AutoMigrate {
		if err := migrations.Up(cfg.DatabaseConfig.Driver, cfg.DatabaseConfig.DSN); err != nil {
			zap.L().Fatal("Ошибка применения миграций", zap.Error(err))
		}
	}

	db, err := config.SetupDatabase(&cfg.DatabaseConfig)
	if err != nil {
		zap.L().Fatal("Не удалось подключиться к БД", zap.Error(err))
	}
	if cfg.DatabaseConfig.Driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	return repository.NewDocumentRepository(db, lockTimeout), func() {
		if err := db.Close(); err != nil {
			zap.L().Error("Ошибка при закрытии БД", zap.Error(err))
		}
	}
}

func setupContentStore(ctx context.Context, cfg *config.AppConfig) ports.ContentStore {
	if cfg.Storage.Content == "s3" {
		s3Service, err := service.NewS3Service(ctx, &cfg.S3Config)
		if err != nil {
			zap.L().Fatal("Ошибка создания S3 сервиса", zap.Error(err))
		}
		return s3Service
	}

	storage, err := service.NewLocalStorage(cfg.Storage.LocalDir)
	if err != nil {
		zap.L().Fatal("Ошибка создания локального хранилища", zap.Error(err))
	}
	return storage
}

func runServer(ctx context.Context, server *http.Server) {
	serverErrors := make(chan error, 1)
	go func() {
		zap.L().Info("сервер запущен", zap.String("addr", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			zap.L().Fatal("ошибка работы сервера", zap.Error(err))
		}
	case sig := <-signalChannel:
		zap.L().Info("получен сигнал остановки работы сервера", zap.String("signal", sig.String()))
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		zap.L().Error("ошибка при остановке сервера", zap.Error(err))
	} else {
		zap.L().Info("Сервер успешно остановлен")
	}
}

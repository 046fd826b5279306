package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
)

const envPrefix = "MULTISIGN_"

type AppConfig struct {
	Env            string          `yaml:"env" env:"ENV"`
	DatabaseConfig DatabaseConfig  `yaml:"databaseConfig"`
	RedisConfig    RedisConfig     `yaml:"redisConfig"`
	ServerAddr     string          `yaml:"serverAddr" env:"SERVER_ADDR"`
	S3Config       S3Config        `yaml:"s3Config"`
	Storage        StorageConfig   `yaml:"storage"`
	JWT            JWTConfig       `yaml:"jwt"`
	Documents      DocumentsConfig `yaml:"documents"`
	SignAPI        SignAPIConfig   `yaml:"signApi"`
}

func defaultConfig() AppConfig {
	return AppConfig{
		Env:            "dev",
		ServerAddr:     ":8080",
		DatabaseConfig: DatabaseConfig{Driver: "postgres"},
		RedisConfig:    RedisConfig{Addr: "localhost:6379"},
		Storage:        StorageConfig{Metadata: "sql", Content: "local", LocalDir: "./documents"},
		Documents: DocumentsConfig{
			LockTimeout:   300,
			SweepInterval: 60,
			MimeType:      "application/pdf",
		},
		SignAPI: SignAPIConfig{Timeout: "30s"},
	}
}

// LoadConfig : значения по умолчанию, затем yaml-файл (если есть), затем переменные окружения MULTISIGN_*
func LoadConfig(path string) (*AppConfig, error) {
	cfg := defaultConfig()

	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("ошибка разбора %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *AppConfig) validate() error {
	switch cfg.Storage.Metadata {
	case "sql", "redis":
	default:
		return fmt.Errorf("неизвестное хранилище метаданных: %q", cfg.Storage.Metadata)
	}
	switch cfg.Storage.Content {
	case "s3", "local":
	default:
		return fmt.Errorf("неизвестное хранилище содержимого: %q", cfg.Storage.Content)
	}
	switch cfg.DatabaseConfig.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("неизвестный драйвер БД: %q", cfg.DatabaseConfig.Driver)
	}
	if cfg.Documents.LockTimeout <= 0 {
		return fmt.Errorf("lock_timeout должен быть положительным")
	}
	if cfg.Documents.MaxAge > 0 && cfg.Documents.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval должен быть положительным при включённой очистке")
	}
	return nil
}

func SetupServer(serverAddress string) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	server := &http.Server{
		Addr:    serverAddress,
		Handler: router,
	}

	return server, router
}

func SetupDatabase(cfg *DatabaseConfig) (*Database, error) {
	return NewDatabaseConnection(cfg.Driver, cfg.DSN)
}

func SetupRedis(cfg *RedisConfig) (*RedisClient, error) {
	return NewRedisClient(cfg)
}

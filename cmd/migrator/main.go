package main

import (
	"errors"
	"flag"
	"log"

	"multisign-server/internal/repository/migrations"
	"multisign-server/internal/util"

	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"
)

func main() {
	driver := flag.String("driver", "postgres", "драйвер БД: postgres | sqlite")
	dsn := flag.String("dsn", "", "строка подключения к БД")
	action := flag.String("action", "up", "up | down | version")
	flag.Parse()

	if _, err := util.InitLogger("dev"); err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}

	if *dsn == "" {
		zap.L().Fatal("не указан -dsn")
	}

	m, err := migrations.New(*driver, *dsn)
	if err != nil {
		zap.L().Fatal("ошибка инициализации миграций", zap.Error(err))
	}
	defer m.Close()

	switch *action {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			zap.L().Fatal("ошибка получения версии", zap.Error(verr))
		}
		zap.L().Info("версия схемы", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return
	default:
		zap.L().Fatal("неизвестное действие", zap.String("action", *action))
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		zap.L().Fatal("ошибка выполнения миграций", zap.String("action", *action), zap.Error(err))
	}
	zap.L().Info("миграции выполнены", zap.String("action", *action), zap.String("driver", *driver))
}

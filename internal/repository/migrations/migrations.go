package migrations

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// New : экземпляр migrate для драйвера (postgres | sqlite) и DSN приложения
func New(driver, dsn string) (*migrate.Migrate, error) {
	source, err := iofs.New(files, driver)
	if err != nil {
		return nil, fmt.Errorf("нет миграций для драйвера %s: %w", driver, err)
	}

	databaseURL, err := DatabaseURL(driver, dsn)
	if err != nil {
		return nil, err
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания migrate: %w", err)
	}
	return m, nil
}

// Up : применяет все неприменённые миграции
func Up(driver, dsn string) error {
	m, err := New(driver, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	zap.L().Info("миграции применены", zap.String("driver", driver))
	return nil
}

// DatabaseURL : приводит DSN приложения к URL, понятному драйверам migrate
func DatabaseURL(driver, dsn string) (string, error) {
	switch driver {
	case "postgres":
		if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
			return "", fmt.Errorf("для миграций postgres DSN должен быть в формате URL")
		}
		return dsn, nil
	case "sqlite":
		return "sqlite://" + strings.TrimPrefix(dsn, "file:"), nil
	default:
		return "", fmt.Errorf("неизвестный драйвер БД: %q", driver)
	}
}

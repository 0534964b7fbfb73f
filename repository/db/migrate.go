package db

import (
	"fmt"

	"todoapp/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migration применяет миграции из каталога migratePath к базе dbStr
func Migration(dbStr, migratePath string) error {
	if dbStr == "" {
		return fmt.Errorf("не указана строка подключения к БД")
	}
	if migratePath == "" {
		return fmt.Errorf("не указан путь к миграциям")
	}

	m, err := migrate.New("file://"+migratePath, dbStr)
	if err != nil {
		logger.Log.WithError(err).Error("не удалось инициализировать миграции")
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Log.Warnf("ошибка при закрытии миграций: %v %v", srcErr, dbErr)
		}
	}()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Log.WithError(err).Error("не удалось применить миграции")
		return err
	}

	return nil
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todoapp/internal/logger"
	"todoapp/internal/server"
	db "todoapp/repository/db"
	inmemory "todoapp/repository/inmemory"
)

func main() {
	log := logger.Init("todoapp")
	log.Info("запуск сервиса задач...")

	cfg := server.ReadConfig()

	if err := db.Migration(cfg.DBStr, cfg.MigratePath); err != nil {
		log.WithError(err).Warn("ошибка применения миграций")
	} else {
		log.Info("миграции применены успешно")
	}

	var userRepo server.UserRepository
	var taskRepo server.TaskRepository

	dbStorage, err := db.NewStorage(cfg.DBStr)
	if err != nil {
		log.WithError(err).Warn("не удалось подключиться к БД, используем память")
		inmem := inmemory.NewStorage()
		userRepo = inmem
		taskRepo = inmem
	} else {
		userRepo = dbStorage
		taskRepo = dbStorage
	}

	api := server.NewTaskAPI(userRepo, taskRepo, cfg)
	if api == nil {
		log.Fatal("не удалось инициализировать API")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("сервис запущен на %s:%d", cfg.Addr, cfg.Port)
		if err := api.Start(); err != nil {
			serverErr <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.Infof("получен сигнал %v, начинаем graceful shutdown...", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := api.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("ошибка при graceful shutdown")
		} else {
			log.Info("graceful shutdown выполнен успешно")
		}

	case err := <-serverErr:
		log.WithError(err).Error("ошибка сервера")
	}

	if dbStorage != nil {
		dbStorage.Close()
	}

	log.Info("сервис завершен")
}

// Сидер: наполняет базу демонстрационными задачами от имени
// служебного пользователя demo
package main

import (
	"context"
	"time"

	"todoapp/internal/domain/models"
	"todoapp/internal/logger"
	"todoapp/internal/server"
	db "todoapp/repository/db"

	"golang.org/x/crypto/bcrypt"
)

const (
	demoUsername = "demo"
	demoEmail    = "demo@todoapp.local"
	demoPassword = "password123"
)

func main() {
	log := logger.Init("todoapp-seed")

	cfg := server.ReadConfig()

	if err := db.Migration(cfg.DBStr, cfg.MigratePath); err != nil {
		log.WithError(err).Fatal("ошибка применения миграций")
	}

	storage, err := db.NewStorage(cfg.DBStr)
	if err != nil {
		log.WithError(err).Fatal("не удалось подключиться к базе данных")
	}

	defer storage.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	user, err := storage.GetUserByEmail(ctx, demoEmail)
	if err != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
		if err != nil {
			log.WithError(err).Fatal("не удалось захэшировать пароль")
		}
		user = &models.User{
			Username:     demoUsername,
			Email:        demoEmail,
			PasswordHash: string(hash),
		}
		if err := storage.CreateUser(ctx, user); err != nil {
			log.WithError(err).Fatal("не удалось создать демо-пользователя")
		}
		log.WithField("user_id", user.ID).Info("демо-пользователь создан")
	}

	purged, err := storage.PurgeUserTasks(ctx, user.ID)
	if err != nil {
		log.WithError(err).Fatal("не удалось очистить прежние задачи")
	}
	log.WithField("count", purged).Info("прежние задачи удалены")

	now := time.Now().UTC()
	seedTasks := []models.Task{
		{Title: "Изучить React и TypeScript", Completed: false, Priority: models.PriorityHigh, CreatedAt: now},
		{Title: "Собрать backend на Go", Completed: true, Priority: models.PriorityHigh, CreatedAt: now.Add(-24 * time.Hour)},
		{Title: "Подключить базу данных", Completed: false, Priority: models.PriorityMedium, CreatedAt: now.Add(-12 * time.Hour)},
		{Title: "Сверстать интерфейс", Completed: true, Priority: models.PriorityLow, CreatedAt: now.Add(-6 * time.Hour)},
		{Title: "Задеплоить приложение", Completed: false, Priority: models.PriorityMedium, CreatedAt: now.Add(-time.Hour)},
		{Title: "Написать unit-тесты", Completed: false, Priority: models.PriorityHigh, CreatedAt: now.Add(-30 * time.Minute)},
		{Title: "Оптимизировать производительность", Completed: false, Priority: models.PriorityLow, CreatedAt: now.Add(-15 * time.Minute)},
	}

	for i := range seedTasks {
		seedTasks[i].UserID = user.ID
		seedTasks[i].UpdatedAt = seedTasks[i].CreatedAt
		if err := storage.CreateTask(ctx, &seedTasks[i]); err != nil {
			log.WithError(err).WithField("title", seedTasks[i].Title).Fatal("не удалось создать задачу")
		}
	}

	tasks, err := storage.GetTasks(ctx, user.ID)
	if err != nil {
		log.WithError(err).Fatal("не удалось получить статистику")
	}

	completed := 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}

	log.WithField("total", len(tasks)).
		WithField("completed", completed).
		WithField("pending", len(tasks)-completed).
		Info("база наполнена демонстрационными задачами")
}

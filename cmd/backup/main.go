// Резервное копирование задач: выгрузка в JSON-файл и восстановление
// из ранее созданной копии
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"time"

	"todoapp/internal/domain/models"
	"todoapp/internal/logger"
	"todoapp/internal/server"
	db "todoapp/repository/db"
)

type backupFile struct {
	Timestamp  string        `json:"timestamp"`
	Version    string        `json:"version"`
	TotalTasks int           `json:"totalTasks"`
	Tasks      []models.Task `json:"tasks"`
}

var (
	backupDir   = flag.String("dir", "backups", "каталог для резервных копий")
	restoreFile = flag.String("restore", "", "имя файла копии для восстановления")
)

func main() {
	log := logger.Init("todoapp-backup")

	cfg := server.ReadConfig()

	storage, err := db.NewStorage(cfg.DBStr)
	if err != nil {
		log.WithError(err).Fatal("не удалось подключиться к базе данных")
	}

	defer storage.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if *restoreFile != "" {
		restore(ctx, storage, *restoreFile)
		return
	}
	create(ctx, storage)
}

func create(ctx context.Context, storage *db.Storage) {
	log := logger.Log

	if err := os.MkdirAll(*backupDir, 0o755); err != nil {
		log.WithError(err).Fatal("не удалось создать каталог резервных копий")
	}

	tasks, err := storage.GetAllTasks(ctx)
	if err != nil {
		log.WithError(err).Fatal("не удалось выгрузить задачи")
	}

	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(time.Now().UTC().Format(time.RFC3339))
	path := filepath.Join(*backupDir, "tasks-backup-"+stamp+".json")

	data, err := json.MarshalIndent(backupFile{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Version:    "1.0",
		TotalTasks: len(tasks),
		Tasks:      tasks,
	}, "", "  ")
	if err != nil {
		log.WithError(err).Fatal("не удалось сериализовать резервную копию")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.WithError(err).Fatal("не удалось записать файл резервной копии")
	}

	log.WithField("file", path).
		WithField("total", len(tasks)).
		Info("резервная копия создана")
}

func restore(ctx context.Context, storage *db.Storage, name string) {
	log := logger.Log

	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(*backupDir, name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.WithError(err).Fatal("не удалось прочитать файл резервной копии")
	}

	var backup backupFile
	if err := json.Unmarshal(data, &backup); err != nil {
		log.WithError(err).Fatal("не удалось разобрать файл резервной копии")
	}

	if err := storage.TruncateTasks(ctx); err != nil {
		log.WithError(err).Fatal("не удалось очистить таблицу задач")
	}

	for i := range backup.Tasks {
		if err := storage.CreateTask(ctx, &backup.Tasks[i]); err != nil {
			log.WithError(err).WithField("task_id", backup.Tasks[i].ID).Fatal("не удалось восстановить задачу")
		}
	}

	log.WithField("total", backup.TotalTasks).
		WithField("created", backup.Timestamp).
		Info("восстановление завершено")
}

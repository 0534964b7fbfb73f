package db

import (
	"context"
	"time"

	"todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"
	"todoapp/internal/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Storage работает через пул соединений: одиночный pgx.Conn не
// выдерживает параллельные запросы обработчиков
type Storage struct {
	pool              *pgxpool.Pool
	sqlCreateTask     string
	sqlGetTaskByID    string
	sqlGetTasks       string
	sqlUpdateTask     string
	sqlDeleteTask     string
	sqlCreateUser     string
	sqlGetUserByID    string
	sqlGetUserByEmail string
	deleteQueue       chan struct{}
}

func NewStorage(connStr string) (*Storage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		logger.Log.WithError(err).Error("не удалось разобрать строку подключения к базе данных")
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Log.WithError(err).Error("не удалось подключиться к базе данных")
		return nil, err
	}

	s := &Storage{
		pool:              pool,
		sqlCreateTask:     `INSERT INTO tasks (id, title, description, completed, priority, due_date, user_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sqlGetTaskByID:    `SELECT id, title, description, completed, priority, due_date, user_id, created_at, updated_at FROM tasks WHERE id = $1 AND user_id = $2 AND deleted = false`,
		sqlGetTasks:       `SELECT id, title, description, completed, priority, due_date, user_id, created_at, updated_at FROM tasks WHERE user_id = $1 AND deleted = false ORDER BY created_at DESC`,
		sqlUpdateTask:     `UPDATE tasks SET title = $1, description = $2, completed = $3, priority = $4, due_date = $5, updated_at = $6 WHERE id = $7 AND user_id = $8 AND deleted = false`,
		sqlDeleteTask:     `UPDATE tasks SET deleted = true WHERE id = $1 AND user_id = $2 AND deleted = false`,
		sqlCreateUser:     `INSERT INTO users (id, username, email, password_hash) VALUES ($1, $2, $3, $4)`,
		sqlGetUserByID:    `SELECT id, username, email, password_hash FROM users WHERE id = $1`,
		sqlGetUserByEmail: `SELECT id, username, email, password_hash FROM users WHERE email = $1`,
		deleteQueue:       make(chan struct{}, 10),
	}
	logger.Log.Info("соединение с базой данных установлено успешно")
	return s, nil
}

func (s *Storage) Close() {
	s.pool.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx, s.sqlCreateTask, task.ID, task.Title, task.Description, task.Completed, task.Priority, task.DueDate, task.UserID, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		logger.Log.WithError(err).Error("не удалось создать задачу")
		return errors.ErrConflict
	}
	logger.Log.WithField("task_id", task.ID).Debug("задача записана в БД")
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id, userID string) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	row := s.pool.QueryRow(ctx, s.sqlGetTaskByID, id, userID)
	task := &models.Task{}
	if err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Completed, &task.Priority, &task.DueDate, &task.UserID, &task.CreatedAt, &task.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.ErrNotFound
		}
		logger.Log.WithError(err).Error("ошибка при получении задачи")
		return nil, err
	}
	return task, nil
}

func (s *Storage) GetTasks(ctx context.Context, userID string) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	rows, err := s.pool.Query(ctx, s.sqlGetTasks, userID)
	if err != nil {
		logger.Log.WithError(err).Error("не удалось получить задачи")
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task := models.Task{}
		if err := rows.Scan(&task.ID, &task.Title, &task.Description, &task.Completed, &task.Priority, &task.DueDate, &task.UserID, &task.CreatedAt, &task.UpdatedAt); err != nil {
			logger.Log.WithError(err).Error("ошибка при чтении задач")
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *Storage) UpdateTask(ctx context.Context, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	ct, err := s.pool.Exec(ctx, s.sqlUpdateTask, task.Title, task.Description, task.Completed, task.Priority, task.DueDate, task.UpdatedAt, task.ID, task.UserID)
	if err != nil {
		logger.Log.WithError(err).Error("не удалось обновить задачу")
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrNotFound
	}
	logger.Log.WithField("task_id", task.ID).Debug("задача обновлена в БД")
	return nil
}

// DeleteTask помечает задачу удалённой; физическое удаление выполняется
// пачками через deleteQueue
func (s *Storage) DeleteTask(ctx context.Context, id, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	ct, err := s.pool.Exec(ctx, s.sqlDeleteTask, id, userID)
	if err != nil {
		logger.Log.WithError(err).Error("не удалось пометить задачу как удалённую")
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrNotFound
	}
	logger.Log.WithField("task_id", id).Debug("задача помечена как удалённая")
	s.tryEnqueueOrFlush()
	return nil
}

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx, s.sqlCreateUser, user.ID, user.Username, user.Email, user.PasswordHash)
	if err != nil {
		logger.Log.WithError(err).Error("не удалось создать пользователя")
		return errors.ErrUserAlreadyExists
	}
	logger.Log.WithField("user_id", user.ID).Debug("пользователь записан в БД")
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	row := s.pool.QueryRow(ctx, s.sqlGetUserByID, id)
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.ErrUserNotFound
		}
		logger.Log.WithError(err).Error("ошибка при получении пользователя")
		return nil, err
	}
	return user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	row := s.pool.QueryRow(ctx, s.sqlGetUserByEmail, email)
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.ErrUserNotFound
		}
		logger.Log.WithError(err).Error("ошибка при получении пользователя")
		return nil, err
	}
	return user, nil
}

// GetAllTasks возвращает все неудалённые задачи без фильтра по владельцу,
// используется командой резервного копирования
func (s *Storage) GetAllTasks(ctx context.Context) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	rows, err := s.pool.Query(ctx, `SELECT id, title, description, completed, priority, due_date, user_id, created_at, updated_at FROM tasks WHERE deleted = false ORDER BY created_at DESC`)
	if err != nil {
		logger.Log.WithError(err).Error("не удалось получить все задачи")
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task := models.Task{}
		if err := rows.Scan(&task.ID, &task.Title, &task.Description, &task.Completed, &task.Priority, &task.DueDate, &task.UserID, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// PurgeUserTasks физически удаляет все задачи пользователя, используется сидером
func (s *Storage) PurgeUserTasks(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	ct, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// TruncateTasks очищает таблицу задач перед восстановлением из резервной копии
func (s *Storage) TruncateTasks(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `DELETE FROM tasks`)
	return err
}

func (s *Storage) tryEnqueueOrFlush() {
	if s.deleteQueue == nil {
		return
	}
	select {
	case s.deleteQueue <- struct{}{}:
	default:
		s.drainDeleteQueue()
		if affected, err := s.hardDeleteAllFlagged(context.Background()); err != nil {
			logger.Log.WithError(err).Error("ошибка при удалении задач с признаком deleted")
		} else if affected > 0 {
			logger.Log.WithField("count", affected).Info("жёстко удалено задач")
		}
	}
}

func (s *Storage) drainDeleteQueue() {
	for {
		select {
		case <-s.deleteQueue:
		default:
			return
		}
	}
}

func (s *Storage) hardDeleteAllFlagged(ctx context.Context) (int64, error) {
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	tx, err := s.pool.Begin(c)
	if err != nil {
		return 0, err
	}
	ct, err := tx.Exec(c, `DELETE FROM tasks WHERE deleted = true`)
	if err != nil {
		_ = tx.Rollback(c)
		return 0, err
	}
	if err := tx.Commit(c); err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

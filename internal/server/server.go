package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"
	"todoapp/internal/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTaskByID(ctx context.Context, id, userID string) (*models.Task, error)
	GetTasks(ctx context.Context, userID string) ([]models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id, userID string) error
}

// Pinger реализуется хранилищем, умеющим проверять соединение с БД
type Pinger interface {
	Ping(ctx context.Context) error
}

type TaskAPI struct {
	httpSrv *http.Server
	users   UserRepository
	tasks   TaskRepository
	cfg     *Config
	started time.Time
}

func NewTaskAPI(users UserRepository, tasks TaskRepository, cfg *Config) *TaskAPI {
	if users == nil || tasks == nil || cfg == nil {
		return nil
	}

	httpSrv := http.Server{
		Addr: fmt.Sprintf("%s:%d", cfg.Addr, cfg.Port),
	}

	api := TaskAPI{
		httpSrv: &httpSrv,
		users:   users,
		tasks:   tasks,
		cfg:     cfg,
		started: time.Now(),
	}

	api.configRoutes()

	return &api
}

func (api *TaskAPI) Start() error {
	if api.httpSrv == nil {
		return errors.ErrInternalServer
	}

	if api.httpSrv.Addr == "" {
		api.httpSrv.Addr = ":5000"
	}

	return api.httpSrv.ListenAndServe()
}

func (api *TaskAPI) Shutdown(ctx context.Context) error {
	if api.httpSrv == nil {
		return nil
	}
	return api.httpSrv.Shutdown(ctx)
}

// Handler отдаёт корневой http.Handler, используется клиентскими тестами
func (api *TaskAPI) Handler() http.Handler {
	return api.httpSrv.Handler
}

func (api *TaskAPI) configRoutes() {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:    []string{"Content-Type", "Authorization"},
	}))
	router.Use(MetricsMiddleware())
	router.Use(GzipResponseCompress())

	router.NoMethod(func(ctx *gin.Context) {
		ctx.JSON(http.StatusMethodNotAllowed, gin.H{"message": "использован некорректный HTTP-метод"})
	})

	router.GET("/health", api.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := router.Group("/api/auth")
	{
		auth.GET("/register", api.registerUsage)
		auth.GET("/login", api.loginUsage)
		auth.POST("/register", api.register)
		auth.POST("/login", api.login)
	}

	tasks := router.Group("/api/tasks", api.authRequired())
	{
		tasks.GET("", api.getTasks)
		tasks.POST("", api.createTask)
		tasks.PUT(":taskID", api.updateTask)
		tasks.DELETE(":taskID", api.deleteTask)
	}

	api.httpSrv.Handler = router
}

func (api *TaskAPI) health(ctx *gin.Context) {
	database := "in-memory"
	if pinger, ok := api.tasks.(Pinger); ok {
		if err := pinger.Ping(ctx.Request.Context()); err != nil {
			database = "disconnected"
		} else {
			database = "connected"
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  database,
		"uptime":    time.Since(api.started).Seconds(),
	})
}

func (api *TaskAPI) registerUsage(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"message": "отправьте POST-запрос с полями username, email и password"})
}

func (api *TaskAPI) loginUsage(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"message": "отправьте POST-запрос с полями email и password"})
}

func (api *TaskAPI) register(ctx *gin.Context) {
	var req models.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrBadRequest.Error()})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": validationErrorToErrorResponse(err).Error()})
		return
	}

	existing, err := api.users.GetUserByEmail(ctx.Request.Context(), req.Email)
	if err != nil && err != errors.ErrUserNotFound {
		logger.Log.WithError(err).Error("не удалось проверить email при регистрации")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		return
	}
	if existing != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrEmailTaken.Error()})
		return
	}

	// хэширование пароля выполняется явно здесь, а не в хранилище
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}

	if err := api.users.CreateUser(ctx.Request.Context(), &user); err != nil {
		if err == errors.ErrUserAlreadyExists {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrUserAlreadyExists.Error()})
		} else {
			logger.Log.WithError(err).Error("не удалось создать пользователя")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		}
		return
	}

	token, err := generateToken(user.ID, api.cfg.JWTSecret, api.cfg.JWTExpires)
	if err != nil {
		logger.Log.WithError(err).Error("не удалось подписать токен")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		return
	}

	logger.Log.WithField("user_id", user.ID).Info("пользователь зарегистрирован")
	ctx.JSON(http.StatusCreated, gin.H{"token": token})
}

func (api *TaskAPI) login(ctx *gin.Context) {
	var req models.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrBadRequest.Error()})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": validationErrorToErrorResponse(err).Error()})
		return
	}

	// ответ для неизвестного email и неверного пароля одинаковый,
	// чтобы не раскрывать, какое из полей ошибочно
	user, err := api.users.GetUserByEmail(ctx.Request.Context(), req.Email)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrInvalidCredentials.Error()})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrInvalidCredentials.Error()})
		return
	}

	token, err := generateToken(user.ID, api.cfg.JWTSecret, api.cfg.JWTExpires)
	if err != nil {
		logger.Log.WithError(err).Error("не удалось подписать токен")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		return
	}

	logger.Log.WithField("user_id", user.ID).Info("вход выполнен успешно")
	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

func (api *TaskAPI) getTasks(ctx *gin.Context) {
	userID := ctx.GetString(ctxUserID)

	tasks, err := api.tasks.GetTasks(ctx.Request.Context(), userID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		return
	}

	ctx.JSON(http.StatusOK, tasks)
}

func (api *TaskAPI) createTask(ctx *gin.Context) {
	userID := ctx.GetString(ctxUserID)

	var req models.CreateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrBadRequest.Error()})
		return
	}

	req.Title = strings.TrimSpace(req.Title)

	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": validationErrorToErrorResponse(err).Error()})
		return
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	now := time.Now().UTC()
	task := models.Task{
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Completed:   false,
		Priority:    priority,
		DueDate:     req.DueDate,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := api.tasks.CreateTask(ctx.Request.Context(), &task); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		return
	}

	logger.Log.WithField("task_id", task.ID).Info("задача создана")
	ctx.JSON(http.StatusCreated, task)
}

func (api *TaskAPI) updateTask(ctx *gin.Context) {
	userID := ctx.GetString(ctxUserID)
	id := ctx.Param("taskID")

	var req models.UpdateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrBadRequest.Error()})
		return
	}

	// заголовок нормализуется до валидации: строка из одних пробелов
	// не должна превращаться в пустой заголовок после TrimSpace
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if trimmed == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": errors.ErrInvalidTitle.Error()})
			return
		}
		req.Title = &trimmed
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		req.Description = &trimmed
	}

	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": validationErrorToErrorResponse(err).Error()})
		return
	}

	task, err := api.tasks.GetTaskByID(ctx.Request.Context(), id, userID)
	if err != nil {
		if err == errors.ErrNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"message": errors.ErrNotFound.Error()})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		}
		return
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	// updatedAt обновляется явно перед записью
	task.UpdatedAt = time.Now().UTC()

	if err := api.tasks.UpdateTask(ctx.Request.Context(), task); err != nil {
		if err == errors.ErrNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"message": errors.ErrNotFound.Error()})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		}
		return
	}

	logger.Log.WithField("task_id", task.ID).Info("задача обновлена")
	ctx.JSON(http.StatusOK, task)
}

func (api *TaskAPI) deleteTask(ctx *gin.Context) {
	userID := ctx.GetString(ctxUserID)
	id := ctx.Param("taskID")

	if err := api.tasks.DeleteTask(ctx.Request.Context(), id, userID); err != nil {
		if err == errors.ErrNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"message": errors.ErrNotFound.Error()})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": errors.ErrInternalServer.Error()})
		}
		return
	}

	logger.Log.WithField("task_id", id).Info("задача удалена")
	ctx.JSON(http.StatusOK, gin.H{"message": "задача успешно удалена"})
}

func validationErrorToErrorResponse(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, verr := range verrs {
			switch verr.Field() {
			case "Username":
				return errors.ErrInvalidUsername
			case "Email":
				return errors.ErrInvalidEmail
			case "Password":
				return errors.ErrInvalidPassword
			case "Title":
				return errors.ErrInvalidTitle
			case "Description":
				return errors.ErrInvalidDescription
			case "Priority":
				return errors.ErrInvalidPriority
			}
		}
	}
	return errors.ErrValidationFailed
}

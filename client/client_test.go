package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"todoapp/internal/domain/models"
	"todoapp/internal/server"
	inmemory "todoapp/repository/inmemory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	storage := inmemory.NewStorage()
	api := server.NewTaskAPI(storage, storage, &server.Config{
		JWTSecret:  "testsecret",
		JWTExpires: time.Hour,
	})
	require.NotNil(t, api)

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return srv
}

// полный сценарий: регистрация, создание, завершение, удаление, пустой список
func TestFullScenario(t *testing.T) {
	srv := startTestServer(t)
	c := New(srv.URL, 5*time.Second)
	ctx := context.Background()

	token, err := c.Register(ctx, "alice", "alice@x.com", "pw1234")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, token, c.Token())

	task, err := c.CreateTask(ctx, models.CreateTaskRequest{Title: "Buy milk"})
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", task.Title)
	assert.False(t, task.Completed)
	assert.Equal(t, models.PriorityMedium, task.Priority)

	completed := true
	updated, err := c.UpdateTask(ctx, task.ID, models.UpdateTaskRequest{Completed: &completed})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.True(t, !updated.UpdatedAt.Before(updated.CreatedAt))

	list, err := c.GetAllTasks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Completed)

	require.NoError(t, c.DeleteTask(ctx, task.ID))

	list, err = c.GetAllTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRegisterThenLoginYieldsSameOwner(t *testing.T) {
	srv := startTestServer(t)
	ctx := context.Background()

	first := New(srv.URL, 5*time.Second)
	_, err := first.Register(ctx, "bob", "bob@x.com", "pw1234")
	require.NoError(t, err)

	task, err := first.CreateTask(ctx, models.CreateTaskRequest{Title: "First task"})
	require.NoError(t, err)

	second := New(srv.URL, 5*time.Second)
	_, err = second.Login(ctx, "bob@x.com", "pw1234")
	require.NoError(t, err)

	list, err := second.GetAllTasks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, task.ID, list[0].ID)
	assert.Equal(t, task.UserID, list[0].UserID)
}

func TestForeignTasksAreInvisible(t *testing.T) {
	srv := startTestServer(t)
	ctx := context.Background()

	alice := New(srv.URL, 5*time.Second)
	_, err := alice.Register(ctx, "alice", "alice@x.com", "pw1234")
	require.NoError(t, err)

	task, err := alice.CreateTask(ctx, models.CreateTaskRequest{Title: "alice's task"})
	require.NoError(t, err)

	mallory := New(srv.URL, 5*time.Second)
	_, err = mallory.Register(ctx, "mallory", "mallory@x.com", "pw1234")
	require.NoError(t, err)

	completed := true
	_, err = mallory.UpdateTask(ctx, task.ID, models.UpdateTaskRequest{Completed: &completed})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	err = mallory.DeleteTask(ctx, task.ID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	list, err := mallory.GetAllTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLoginErrorsAreIndistinguishable(t *testing.T) {
	srv := startTestServer(t)
	ctx := context.Background()

	c := New(srv.URL, 5*time.Second)
	_, err := c.Register(ctx, "carol", "carol@x.com", "pw1234")
	require.NoError(t, err)

	_, errWrongPassword := c.Login(ctx, "carol@x.com", "bad-password")
	_, errUnknownEmail := c.Login(ctx, "ghost@x.com", "bad-password")

	var wrongErr, unknownErr *APIError
	require.ErrorAs(t, errWrongPassword, &wrongErr)
	require.ErrorAs(t, errUnknownEmail, &unknownErr)
	assert.Equal(t, wrongErr.StatusCode, unknownErr.StatusCode)
	assert.Equal(t, wrongErr.Message, unknownErr.Message)
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	srv := startTestServer(t)
	ctx := context.Background()

	c := New(srv.URL, 5*time.Second)

	_, err := c.GetAllTasks(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestHealth(t *testing.T) {
	srv := startTestServer(t)

	c := New(srv.URL, 5*time.Second)
	status, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OK", status.Status)
	assert.Equal(t, "in-memory", status.Database)
}

func TestDuplicateEmailRegistration(t *testing.T) {
	srv := startTestServer(t)
	ctx := context.Background()

	c := New(srv.URL, 5*time.Second)
	_, err := c.Register(ctx, "dave", "dave@x.com", "pw1234")
	require.NoError(t, err)

	_, err = c.Register(ctx, "dave2", "dave@x.com", "pw1234")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/projectpulse/backend/internal/auth"
	"github.com/projectpulse/backend/internal/models"
	"github.com/projectpulse/backend/internal/services"
)

// The fakes below implement the service interfaces against an
// in-memory store so handler tests exercise the real routing, auth
// middleware and error mapping without a database.

type fakeStore struct {
	mu     sync.Mutex
	users  map[string]*models.User
	tasks  map[int64]*models.Task
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[string]*models.User),
		tasks: make(map[int64]*models.Task),
	}
}

type fakeAuthService struct {
	store  *fakeStore
	tokens *auth.TokenManager
}

func (s *fakeAuthService) Register(_ context.Context, params services.RegisterParams) (*models.User, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	for _, user := range s.store.users {
		if user.Username == params.Username || user.Email == params.Email {
			return nil, services.ErrUserAlreadyExists
		}
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.store.users[user.Username] = user
	return user, nil
}

func (s *fakeAuthService) Login(_ context.Context, params services.LoginParams) (*services.LoginResult, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	user, ok := s.store.users[params.Username]
	if !ok {
		return nil, services.ErrInvalidCredentials
	}
	if !auth.VerifyPassword(params.Password, user.PasswordHash) {
		return nil, services.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, err
	}
	return &services.LoginResult{
		User:        user,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}

type fakeUserService struct {
	store *fakeStore
}

func (s *fakeUserService) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	user, ok := s.store.users[username]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	return user, nil
}

type fakeTaskService struct {
	store *fakeStore
}

func (s *fakeTaskService) Create(_ context.Context, params services.CreateTaskParams) (*models.Task, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	task := &models.Task{
		UserID:      params.UserID,
		Title:       params.Title,
		Description: params.Description,
		Status:      params.Status,
		Priority:    params.Priority,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if task.Status == "" {
		task.Status = models.StatusPending
	} else if !models.IsValidStatus(task.Status) {
		return nil, services.ErrInvalidTaskStatus
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	} else if !models.IsValidPriority(task.Priority) {
		return nil, services.ErrInvalidTaskPriority
	}

	s.store.nextID++
	task.ID = s.store.nextID
	s.store.tasks[task.ID] = task
	return task, nil
}

func (s *fakeTaskService) List(_ context.Context, params services.ListTasksParams) ([]*models.Task, int64, error) {
	if params.Status != "" && !models.IsValidStatus(params.Status) {
		return nil, 0, services.ErrInvalidTaskStatus
	}
	if params.Priority != "" && !models.IsValidPriority(params.Priority) {
		return nil, 0, services.ErrInvalidTaskPriority
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	var filtered []*models.Task
	for _, task := range s.store.tasks {
		if task.UserID != params.UserID {
			continue
		}
		if params.Status != "" && task.Status != params.Status {
			continue
		}
		if params.Priority != "" && task.Priority != params.Priority {
			continue
		}
		filtered = append(filtered, task)
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].ID > filtered[j].ID
	})

	total := int64(len(filtered))
	offset := int(params.Offset)
	if offset > len(filtered) {
		offset = len(filtered)
	}
	end := offset + int(params.Limit)
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (s *fakeTaskService) GetByID(_ context.Context, id int64, userID string) (*models.Task, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	task, ok := s.store.tasks[id]
	if !ok || task.UserID != userID {
		return nil, services.ErrTaskNotFound
	}
	return task, nil
}

func (s *fakeTaskService) Update(_ context.Context, params services.UpdateTaskParams) (*models.Task, error) {
	if params.Status != nil && !models.IsValidStatus(*params.Status) {
		return nil, services.ErrInvalidTaskStatus
	}
	if params.Priority != nil && !models.IsValidPriority(*params.Priority) {
		return nil, services.ErrInvalidTaskPriority
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	task, ok := s.store.tasks[params.ID]
	if !ok || task.UserID != params.UserID {
		return nil, services.ErrTaskNotFound
	}

	if params.Title != nil {
		task.Title = *params.Title
	}
	if params.Description != nil {
		task.Description = *params.Description
	}
	if params.Status != nil {
		task.Status = *params.Status
	}
	if params.Priority != nil {
		task.Priority = *params.Priority
	}
	task.UpdatedAt = time.Now()
	return task, nil
}

func (s *fakeTaskService) Delete(_ context.Context, id int64, userID string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	task, ok := s.store.tasks[id]
	if !ok || task.UserID != userID {
		return services.ErrTaskNotFound
	}
	delete(s.store.tasks, id)
	return nil
}

type testEnv struct {
	router *gin.Engine
	store  *fakeStore
	tokens *auth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newFakeStore()
	tokens := auth.NewTokenManager("projectpulse-test", "test-signing-key", 30*time.Minute)
	handler := New(
		zerolog.Nop(),
		tokens,
		&fakeAuthService{store: store, tokens: tokens},
		&fakeUserService{store: store},
		&fakeTaskService{store: store},
	)

	router := gin.New()
	api := router.Group("/api")

	authRouter := api.Group("/auth")
	authRouter.POST("/signup", handler.HandleSignup)
	authRouter.POST("/login", handler.HandleLogin)

	usersRouter := api.Group("/users", handler.HandleAuthMiddleware)
	usersRouter.GET("/me", handler.HandleGetMe)

	tasksRouter := api.Group("/tasks", handler.HandleAuthMiddleware)
	tasksRouter.GET("", handler.HandleListTasks)
	tasksRouter.POST("", handler.HandleCreateTask)
	tasksRouter.GET("/:id", handler.HandleGetTask)
	tasksRouter.PUT("/:id", handler.HandleUpdateTask)
	tasksRouter.DELETE("/:id", handler.HandleDeleteTask)

	return &testEnv{
		router: router,
		store:  store,
		tokens: tokens,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) signup(t *testing.T, username, email, password string) userResponse {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"username": username,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var user userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	return user
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

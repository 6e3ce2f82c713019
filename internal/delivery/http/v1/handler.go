package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/projectpulse/backend/internal/auth"
	"github.com/projectpulse/backend/internal/services"
)

type Handler interface {
	HandleSignup(c *gin.Context)
	HandleLogin(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)
	HandleGetMe(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleListTasks(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
}

type handlerImpl struct {
	logger zerolog.Logger
	tokens *auth.TokenManager
	auth   services.AuthService
	users  services.UserService
	tasks  services.TaskService
}

func New(
	logger zerolog.Logger,
	tokens *auth.TokenManager,
	authService services.AuthService,
	userService services.UserService,
	taskService services.TaskService,
) Handler {
	return &handlerImpl{
		logger: logger,
		tokens: tokens,
		auth:   authService,
		users:  userService,
		tasks:  taskService,
	}
}

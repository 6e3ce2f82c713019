package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/projectpulse/backend/internal/auth"
	"github.com/projectpulse/backend/internal/config"
	"github.com/projectpulse/backend/internal/delivery/http/v1"
	"github.com/projectpulse/backend/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	jwtCfg := config.Global().JWT
	tokens := auth.NewTokenManager(
		jwtCfg.Issuer,
		jwtCfg.SigningKey,
		jwtCfg.AccessTokenTTL,
	)

	authService := services.NewAuthService(globalLogger, globalPostgresPool, tokens)
	userService := services.NewUserService(globalLogger, globalPostgresPool)
	taskService := services.NewTaskService(globalLogger, globalPostgresPool)
	v1Handler := v1.New(globalLogger, tokens, authService, userService, taskService)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ProjectPulse API is running"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := router.Group("/api")

	authRouter := api.Group("/auth")
	authRouter.POST("/signup", v1Handler.HandleSignup)
	authRouter.POST("/login", v1Handler.HandleLogin)

	usersRouter := api.Group("/users", v1Handler.HandleAuthMiddleware)
	usersRouter.GET("/me", v1Handler.HandleGetMe)

	tasksRouter := api.Group("/tasks", v1Handler.HandleAuthMiddleware)
	tasksRouter.GET("", v1Handler.HandleListTasks)
	tasksRouter.POST("", v1Handler.HandleCreateTask)
	tasksRouter.GET("/:id", v1Handler.HandleGetTask)
	tasksRouter.PUT("/:id", v1Handler.HandleUpdateTask)
	tasksRouter.DELETE("/:id", v1Handler.HandleDeleteTask)
}

package router

import (
	"fmt"
	"net/http"
	"todoreminder/internal/interfaces/api/handler"
	"todoreminder/internal/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Config holds the dependencies for the router.
type Config struct {
	TodoHandler *handler.TodoHandler
	UserHandler *handler.UserHandler
	Auth        *handler.AuthMiddleware
	LineHandler *handler.LineHandler // nil unless the line transport is active
	Logger      logger.Logger
}

// NewRouter creates and configures a new Echo router.
func NewRouter(cfg *Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()

	// Middleware
	e.Use(middleware.RequestID())
	// Use custom logger that integrates with our logger interface
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			cfg.Logger.Info(fmt.Sprintf("REQUEST: method=%s, uri=%s, status=%d, latency=%s, req_id=%s",
				v.Method, v.URI, v.Status, v.Latency, v.RequestID,
			))
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, handler.HeaderUserID},
		MaxAge:       300,
	}))

	// Routes
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")
	api.POST("/users/signup", cfg.UserHandler.Signup)

	users := api.Group("/users", cfg.Auth.RequireUser)
	users.GET("/me", cfg.UserHandler.Me)
	users.POST("/me/line-code", cfg.UserHandler.IssueLineCode)

	todos := api.Group("/todos", cfg.Auth.RequireUser)
	todos.GET("", cfg.TodoHandler.List)
	todos.POST("", cfg.TodoHandler.Create)
	todos.POST("/hydrate", cfg.TodoHandler.Hydrate, cfg.Auth.RequireSuperuser)
	todos.GET("/:id", cfg.TodoHandler.Get)
	todos.PUT("/:id", cfg.TodoHandler.Update)
	todos.DELETE("/:id", cfg.TodoHandler.Delete)

	if cfg.LineHandler != nil {
		// LINE Platform requires POST for webhook
		e.POST("/callback", cfg.LineHandler.HandleWebhook)
	}

	cfg.Logger.Info("Router initialized with routes.")
	return e
}

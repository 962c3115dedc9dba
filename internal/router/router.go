package router

import (
	"log/slog"
	"time"

	"flowtasks/internal/config"
	"flowtasks/internal/handler"
	"flowtasks/internal/middleware"
	"flowtasks/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin engine and the /api routes.
func SetupRouter(cfg *config.Config, db *gorm.DB, log *slog.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	if log == nil {
		log = slog.Default()
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery(), middleware.CORS(cfg.Server.ClientURL))
	r.NoRoute(handler.NotFound)

	api := r.Group("/api")
	api.GET("/health", handler.Health)

	tokens := util.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpireDays)*24*time.Hour)
	authHandler := handler.NewAuthHandler(db, tokens, cfg.Security.BcryptCost)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// 需要登录才能访问的接口
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokens, db))

	protected.GET("/auth/profile", authHandler.Profile)

	taskHandler := handler.NewTaskHandler(db)
	protected.GET("/tasks", taskHandler.ListTasks)
	protected.POST("/tasks", taskHandler.CreateTask)
	protected.GET("/tasks/export/csv", taskHandler.ExportCSV)
	protected.GET("/tasks/export/xlsx", taskHandler.ExportXLSX)
	protected.GET("/tasks/:id", taskHandler.GetTask)
	protected.PUT("/tasks/:id", taskHandler.UpdateTask)
	protected.DELETE("/tasks/:id", taskHandler.DeleteTask)

	admin := protected.Group("/admin")
	admin.Use(middleware.AdminMiddleware())

	adminHandler := handler.NewAdminHandler(db, cfg.Security.BcryptCost)
	admin.GET("/users", adminHandler.ListUsers)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)
	admin.PUT("/users/:id/password", adminHandler.ResetPassword)

	return r
}

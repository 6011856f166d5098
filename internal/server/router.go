package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"
  "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

  "github.com/nexushq/nexus-backend/internal/handlers"
  "github.com/nexushq/nexus-backend/internal/logger"
  "github.com/nexushq/nexus-backend/internal/middleware"
)

type RouterConfig struct {
  Log             *logger.Logger
  AuthHandler     *handlers.AuthHandler
  UserHandler     *handlers.UserHandler
  PlaybookHandler *handlers.PlaybookHandler
  AuthMiddleware  *middleware.AuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.New()
  router.Use(gin.Recovery())
  router.Use(otelgin.Middleware("nexus-backend"))
  router.Use(middleware.AttachTraceContext())
  router.Use(middleware.RequestLogger(cfg.Log))

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
      "http://localhost:5174",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

// ===============
// || Public    ||
// ===============
  router.GET("/healthcheck", handlers.HealthCheck)
  api := router.Group("/api")
  {
    api.POST("/register", cfg.AuthHandler.Register)
    api.POST("/login", cfg.AuthHandler.Login)
  }

// ===============
// || Protected ||
// ===============
  protected := router.Group("/api")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  // User
  protected.GET("/user", cfg.UserHandler.GetMe)
  // Playbooks
  protected.GET("/playbooks", cfg.PlaybookHandler.ListPlaybooks)
  protected.GET("/playbooks/active", cfg.PlaybookHandler.GetActivePlaybook)
  protected.GET("/playbooks/:name", cfg.PlaybookHandler.GetPlaybookDetails)
  protected.POST("/playbooks/:id/start", cfg.PlaybookHandler.StartPlaybook)
  protected.POST("/playbooks/:id/items/:itemId/complete", cfg.PlaybookHandler.CompletePlaybookItem)

  return router
}

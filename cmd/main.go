package main

import (
  "context"
  "fmt"
  "os"
  "time"
  "github.com/nexushq/nexus-backend/internal/logger"
  "github.com/nexushq/nexus-backend/internal/utils"
  "github.com/nexushq/nexus-backend/internal/observability"
  "github.com/nexushq/nexus-backend/internal/db"
  redisclient "github.com/nexushq/nexus-backend/internal/clients/redis"
  "github.com/nexushq/nexus-backend/internal/repos"
  "github.com/nexushq/nexus-backend/internal/services"
  "github.com/nexushq/nexus-backend/internal/handlers"
  "github.com/nexushq/nexus-backend/internal/middleware"
  "github.com/nexushq/nexus-backend/internal/server"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  onboardingPlaybook := utils.GetEnv("ONBOARDING_PLAYBOOK", "onboarding", log)
  serverPort := utils.GetEnv("SERVER_PORT", "8080", log)

  // Tracing
  otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
    ServiceName: "nexus-backend",
    Environment: utils.GetEnv("DEPLOY_ENV", "development", log),
    Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
  })
  if otelShutdown != nil {
    defer func() {
      ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
      defer cancel()
      _ = otelShutdown(ctx)
    }()
  }

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  playbookTemplateRepo := repos.NewPlaybookTemplateRepo(thePG, log)
  playbookItemRepo := repos.NewPlaybookItemRepo(thePG, log)
  playbookProgressRepo := repos.NewUserPlaybookProgressRepo(thePG, log)
  playbookResponseRepo := repos.NewUserPlaybookResponseRepo(thePG, log)

  // Redis template cache (optional)
  var templateCache redisclient.TemplateCache
  if cache, cErr := redisclient.NewTemplateCache(log); cErr != nil {
    log.Warn("Playbook template cache disabled", "error", cErr)
  } else {
    templateCache = cache
    defer templateCache.Close()
  }

  // Services
  log.Info("Setting up Services from main...")
  playbookService := services.NewPlaybookService(
    thePG,
    log,
    playbookTemplateRepo,
    playbookItemRepo,
    playbookProgressRepo,
    playbookResponseRepo,
    templateCache,
  )
  authService := services.NewAuthService(thePG, log, userRepo, playbookService, onboardingPlaybook, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
  userService := services.NewUserService(thePG, log, userRepo)

  // Handlers
  log.Info("Setting up Handlers from main...")
  authHandler := handlers.NewAuthHandler(authService)
  userHandler := handlers.NewUserHandler(userService)
  playbookHandler := handlers.NewPlaybookHandler(playbookService)

  // Middleware
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router
  router := server.NewRouter(server.RouterConfig{
    Log:             log,
    AuthHandler:     authHandler,
    UserHandler:     userHandler,
    PlaybookHandler: playbookHandler,
    AuthMiddleware:  authMiddleware,
  })

  log.Info("Starting HTTP server...", "port", serverPort)
  if err := router.Run(":" + serverPort); err != nil {
    log.Error("HTTP server exited", "error", err)
    os.Exit(1)
  }
}

package main

import (
  "context"
  "fmt"
  "os"
  "github.com/nexushq/nexus-backend/internal/logger"
  "github.com/nexushq/nexus-backend/internal/utils"
  "github.com/nexushq/nexus-backend/internal/db"
  "github.com/nexushq/nexus-backend/internal/repos"
  "github.com/nexushq/nexus-backend/internal/services"
)

// Loads playbook template definitions from a YAML seed file and upserts them
// into postgres. Safe to rerun; items match on (playbook, order_index).
func main() {
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

  seedFile := utils.GetEnv("SEED_FILE", "seeds/playbooks.yaml", log)

  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Error("Postgres auto migration failed", "error", err)
    os.Exit(1)
  }
  thePG := postgresService.DB()

  playbookTemplateRepo := repos.NewPlaybookTemplateRepo(thePG, log)
  playbookItemRepo := repos.NewPlaybookItemRepo(thePG, log)
  templateService := services.NewTemplateService(thePG, log, playbookTemplateRepo, playbookItemRepo)

  count, err := templateService.SeedFromFile(context.Background(), seedFile)
  if err != nil {
    log.Error("Seeding failed", "error", err, "file", seedFile)
    os.Exit(1)
  }
  log.Info("Seeding complete", "playbooks", count, "file", seedFile)
}

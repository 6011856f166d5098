package services

import (
  "context"
  "encoding/json"
  "fmt"
  "os"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"
  "gopkg.in/yaml.v3"

  "github.com/nexushq/nexus-backend/internal/logger"
  apperrors "github.com/nexushq/nexus-backend/internal/pkg/errors"
  "github.com/nexushq/nexus-backend/internal/repos"
  "github.com/nexushq/nexus-backend/internal/types"
)

type TemplateService interface {
  // SeedFromFile loads playbook template definitions from a YAML file and
  // upserts them. Returns the number of templates written.
  SeedFromFile(ctx context.Context, path string) (int, error)
}

type templateService struct {
  db           *gorm.DB
  log          *logger.Logger
  templateRepo repos.PlaybookTemplateRepo
  itemRepo     repos.PlaybookItemRepo
}

func NewTemplateService(
  db *gorm.DB,
  baseLog *logger.Logger,
  templateRepo repos.PlaybookTemplateRepo,
  itemRepo repos.PlaybookItemRepo,
) TemplateService {
  serviceLog := baseLog.With("service", "TemplateService")
  return &templateService{
    db:           db,
    log:          serviceLog,
    templateRepo: templateRepo,
    itemRepo:     itemRepo,
  }
}

type seedFile struct {
  Playbooks []seedPlaybook `yaml:"playbooks"`
}

type seedPlaybook struct {
  Name        string     `yaml:"name"`
  Description string     `yaml:"description"`
  Category    string     `yaml:"category"`
  Items       []seedItem `yaml:"items"`
}

type seedItem struct {
  Title            string                 `yaml:"title"`
  Description      string                 `yaml:"description"`
  OrderIndex       int                    `yaml:"order_index"`
  Required         *bool                  `yaml:"required"`
  ValidationSchema map[string]interface{} `yaml:"validation_schema"`
}

func (ts *templateService) SeedFromFile(ctx context.Context, path string) (int, error) {
  raw, err := os.ReadFile(path)
  if err != nil {
    return 0, fmt.Errorf("read seed file %q: %w", path, err)
  }
  seeds, err := parseSeedFile(raw)
  if err != nil {
    return 0, err
  }

  written := 0
  for _, seed := range seeds {
    if err := ts.upsertPlaybook(ctx, seed); err != nil {
      return written, fmt.Errorf("seed playbook %q: %w", seed.Name, err)
    }
    ts.log.Info("Seeded playbook template", "name", seed.Name, "items", len(seed.Items))
    written++
  }
  return written, nil
}

func parseSeedFile(raw []byte) ([]seedPlaybook, error) {
  var file seedFile
  if err := yaml.Unmarshal(raw, &file); err != nil {
    return nil, fmt.Errorf("parse seed yaml: %w", err)
  }
  for _, seed := range file.Playbooks {
    if err := validateSeed(seed); err != nil {
      return nil, err
    }
  }
  return file.Playbooks, nil
}

func validateSeed(seed seedPlaybook) error {
  if seed.Name == "" {
    return fmt.Errorf("playbook name required: %w", apperrors.ErrInvalidArgument)
  }
  if len(seed.Items) == 0 {
    return fmt.Errorf("playbook %q has no items: %w", seed.Name, apperrors.ErrInvalidArgument)
  }
  // Duplicate order_index values are a data-integrity error; reject them
  // here rather than letting the calculator see ties.
  seen := map[int]bool{}
  for _, item := range seed.Items {
    if item.Title == "" {
      return fmt.Errorf("playbook %q has an untitled item: %w", seed.Name, apperrors.ErrInvalidArgument)
    }
    if item.OrderIndex < 1 {
      return fmt.Errorf("playbook %q item %q: order_index must be >= 1: %w", seed.Name, item.Title, apperrors.ErrInvalidArgument)
    }
    if seen[item.OrderIndex] {
      return fmt.Errorf("playbook %q: duplicate order_index %d: %w", seed.Name, item.OrderIndex, apperrors.ErrInvalidArgument)
    }
    seen[item.OrderIndex] = true
  }
  return nil
}

func (ts *templateService) upsertPlaybook(ctx context.Context, seed seedPlaybook) error {
  return ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    template, err := ts.templateRepo.GetByName(ctx, tx, seed.Name)
    if err != nil {
      return fmt.Errorf("load template: %w", err)
    }
    if template == nil {
      template = &types.PlaybookTemplate{
        ID:          uuid.New(),
        Name:        seed.Name,
        Description: seed.Description,
        Category:    seed.Category,
      }
      if _, err := ts.templateRepo.Create(ctx, tx, []*types.PlaybookTemplate{template}); err != nil {
        return fmt.Errorf("create template: %w", err)
      }
    } else {
      template.Description = seed.Description
      template.Category = seed.Category
      if err := ts.templateRepo.Update(ctx, tx, template); err != nil {
        return fmt.Errorf("update template: %w", err)
      }
    }

    for _, item := range seed.Items {
      row := &types.PlaybookItem{
        ID:          uuid.New(),
        PlaybookID:  template.ID,
        OrderIndex:  item.OrderIndex,
        Title:       item.Title,
        Description: item.Description,
        Required:    true,
      }
      if item.Required != nil {
        row.Required = *item.Required
      }
      if len(item.ValidationSchema) > 0 {
        schema, mErr := json.Marshal(item.ValidationSchema)
        if mErr != nil {
          return fmt.Errorf("encode validation schema for %q: %w", item.Title, mErr)
        }
        row.ValidationSchema = datatypes.JSON(schema)
      }
      if err := ts.itemRepo.UpsertByOrder(ctx, tx, row); err != nil {
        return fmt.Errorf("upsert item %q: %w", item.Title, err)
      }
    }
    return nil
  })
}

package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/nexushq/nexus-backend/internal/logger"
  "github.com/nexushq/nexus-backend/internal/types"
)

type PlaybookTemplateRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.PlaybookTemplate) ([]*types.PlaybookTemplate, error)
  Update(ctx context.Context, tx *gorm.DB, row *types.PlaybookTemplate) error
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.PlaybookTemplate, error)
  GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.PlaybookTemplate, error)
  GetAll(ctx context.Context, tx *gorm.DB) ([]*types.PlaybookTemplate, error)
}

type playbookTemplateRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPlaybookTemplateRepo(db *gorm.DB, baseLog *logger.Logger) PlaybookTemplateRepo {
  repoLog := baseLog.With("repo", "PlaybookTemplateRepo")
  return &playbookTemplateRepo{db: db, log: repoLog}
}

func (r *playbookTemplateRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.PlaybookTemplate) ([]*types.PlaybookTemplate, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return []*types.PlaybookTemplate{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *playbookTemplateRepo) Update(ctx context.Context, tx *gorm.DB, row *types.PlaybookTemplate) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Model(&types.PlaybookTemplate{}).
    Where("id = ?", row.ID).
    Updates(map[string]interface{}{
      "description": row.Description,
      "category":    row.Category,
    }).Error; err != nil {
    return err
  }
  return nil
}

func (r *playbookTemplateRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.PlaybookTemplate, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.PlaybookTemplate
  if len(ids) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", ids).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *playbookTemplateRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.PlaybookTemplate, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.PlaybookTemplate
  if name == "" {
    return nil, nil
  }

  if err := transaction.WithContext(ctx).
    Where("name = ?", name).
    Limit(1).
    Find(&results).Error; err != nil {
    return nil, err
  }
  if len(results) == 0 {
    return nil, nil
  }
  return results[0], nil
}

func (r *playbookTemplateRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.PlaybookTemplate, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.PlaybookTemplate
  if err := transaction.WithContext(ctx).
    Order("name ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

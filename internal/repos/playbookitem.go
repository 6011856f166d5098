package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"
  "github.com/nexushq/nexus-backend/internal/logger"
  "github.com/nexushq/nexus-backend/internal/types"
)

type PlaybookItemRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.PlaybookItem) ([]*types.PlaybookItem, error)
  // GetByPlaybookID returns the template's items ordered by order_index
  // ascending. Duplicate order_index values cannot exist; the unique index
  // on (playbook_id, order_index) rejects them at write time.
  GetByPlaybookID(ctx context.Context, tx *gorm.DB, playbookID uuid.UUID) ([]*types.PlaybookItem, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.PlaybookItem, error)
  UpsertByOrder(ctx context.Context, tx *gorm.DB, row *types.PlaybookItem) error
}

type playbookItemRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPlaybookItemRepo(db *gorm.DB, baseLog *logger.Logger) PlaybookItemRepo {
  repoLog := baseLog.With("repo", "PlaybookItemRepo")
  return &playbookItemRepo{db: db, log: repoLog}
}

func (r *playbookItemRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.PlaybookItem) ([]*types.PlaybookItem, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return []*types.PlaybookItem{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *playbookItemRepo) GetByPlaybookID(ctx context.Context, tx *gorm.DB, playbookID uuid.UUID) ([]*types.PlaybookItem, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.PlaybookItem
  if playbookID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("playbook_id = ?", playbookID).
    Order("order_index ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *playbookItemRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.PlaybookItem, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.PlaybookItem
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

func (r *playbookItemRepo) UpsertByOrder(ctx context.Context, tx *gorm.DB, row *types.PlaybookItem) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }

  // Upsert by unique playbook_id + order_index
  if err := transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns:   []clause.Column{{Name: "playbook_id"}, {Name: "order_index"}},
      DoUpdates: clause.AssignmentColumns([]string{"title", "description", "required", "validation_schema", "updated_at"}),
    }).
    Create(row).Error; err != nil {
    return err
  }
  return nil
}

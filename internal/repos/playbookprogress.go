package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"
  "github.com/nexushq/nexus-backend/internal/logger"
  "github.com/nexushq/nexus-backend/internal/types"
)

type UserPlaybookProgressRepo interface {
  Create(ctx context.Context, tx *gorm.DB, row *types.UserPlaybookProgress) error
  Update(ctx context.Context, tx *gorm.DB, row *types.UserPlaybookProgress) error
  GetByUserAndPlaybook(ctx context.Context, tx *gorm.DB, userID, playbookID uuid.UUID) (*types.UserPlaybookProgress, error)
  // GetByUserAndPlaybookForUpdate locks the journey row for the duration of
  // the surrounding transaction so concurrent completions of sibling steps
  // serialize their recompute-and-persist sequence.
  GetByUserAndPlaybookForUpdate(ctx context.Context, tx *gorm.DB, userID, playbookID uuid.UUID) (*types.UserPlaybookProgress, error)
  GetActiveByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserPlaybookProgress, error)
}

type userPlaybookProgressRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUserPlaybookProgressRepo(db *gorm.DB, baseLog *logger.Logger) UserPlaybookProgressRepo {
  repoLog := baseLog.With("repo", "UserPlaybookProgressRepo")
  return &userPlaybookProgressRepo{db: db, log: repoLog}
}

func (r *userPlaybookProgressRepo) Create(ctx context.Context, tx *gorm.DB, row *types.UserPlaybookProgress) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }

  if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
    return err
  }
  return nil
}

func (r *userPlaybookProgressRepo) Update(ctx context.Context, tx *gorm.DB, row *types.UserPlaybookProgress) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Model(&types.UserPlaybookProgress{}).
    Where("id = ?", row.ID).
    Updates(map[string]interface{}{
      "status":              row.Status,
      "progress_percentage": row.ProgressPercentage,
      "started_at":          row.StartedAt,
      "completed_at":        row.CompletedAt,
    }).Error; err != nil {
    return err
  }
  return nil
}

func (r *userPlaybookProgressRepo) GetByUserAndPlaybook(ctx context.Context, tx *gorm.DB, userID, playbookID uuid.UUID) (*types.UserPlaybookProgress, error) {
  return r.getByUserAndPlaybook(ctx, tx, userID, playbookID, false)
}

func (r *userPlaybookProgressRepo) GetByUserAndPlaybookForUpdate(ctx context.Context, tx *gorm.DB, userID, playbookID uuid.UUID) (*types.UserPlaybookProgress, error) {
  return r.getByUserAndPlaybook(ctx, tx, userID, playbookID, true)
}

func (r *userPlaybookProgressRepo) getByUserAndPlaybook(ctx context.Context, tx *gorm.DB, userID, playbookID uuid.UUID, forUpdate bool) (*types.UserPlaybookProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if userID == uuid.Nil || playbookID == uuid.Nil {
    return nil, nil
  }

  query := transaction.WithContext(ctx)
  // sqlite has no FOR UPDATE; its single-writer model already serializes.
  if forUpdate && transaction.Dialector.Name() == "postgres" {
    query = query.Clauses(clause.Locking{Strength: "UPDATE"})
  }

  var results []*types.UserPlaybookProgress
  if err := query.
    Where("user_id = ? AND playbook_id = ?", userID, playbookID).
    Limit(1).
    Find(&results).Error; err != nil {
    return nil, err
  }
  if len(results) == 0 {
    return nil, nil
  }
  return results[0], nil
}

func (r *userPlaybookProgressRepo) GetActiveByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserPlaybookProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if userID == uuid.Nil {
    return nil, nil
  }

  // Most recently started journey wins when several are in progress.
  var results []*types.UserPlaybookProgress
  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND status = ?", userID, types.PlaybookStatusInProgress).
    Order("started_at DESC").
    Limit(1).
    Find(&results).Error; err != nil {
    return nil, err
  }
  if len(results) == 0 {
    return nil, nil
  }
  return results[0], nil
}

package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"
  "github.com/nexushq/nexus-backend/internal/logger"
  "github.com/nexushq/nexus-backend/internal/types"
)

type UserPlaybookResponseRepo interface {
  GetByJourneyID(ctx context.Context, tx *gorm.DB, journeyID uuid.UUID) ([]*types.UserPlaybookResponse, error)
  // Upsert writes the response for (journey_id, step_id) as a single atomic
  // statement: a second completion of the same step replaces the payload and
  // completed_at instead of adding a row.
  Upsert(ctx context.Context, tx *gorm.DB, row *types.UserPlaybookResponse) error
}

type userPlaybookResponseRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUserPlaybookResponseRepo(db *gorm.DB, baseLog *logger.Logger) UserPlaybookResponseRepo {
  repoLog := baseLog.With("repo", "UserPlaybookResponseRepo")
  return &userPlaybookResponseRepo{db: db, log: repoLog}
}

func (r *userPlaybookResponseRepo) GetByJourneyID(ctx context.Context, tx *gorm.DB, journeyID uuid.UUID) ([]*types.UserPlaybookResponse, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.UserPlaybookResponse
  if journeyID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("journey_id = ?", journeyID).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *userPlaybookResponseRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.UserPlaybookResponse) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns:   []clause.Column{{Name: "journey_id"}, {Name: "step_id"}},
      DoUpdates: clause.AssignmentColumns([]string{"response", "completed_at", "updated_at"}),
    }).
    Create(row).Error; err != nil {
    return err
  }
  return nil
}

package services

import (
  "context"
  "fmt"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  redisclient "github.com/nexushq/nexus-backend/internal/clients/redis"
  "github.com/nexushq/nexus-backend/internal/logger"
  apperrors "github.com/nexushq/nexus-backend/internal/pkg/errors"
  "github.com/nexushq/nexus-backend/internal/repos"
  "github.com/nexushq/nexus-backend/internal/types"
)

type PlaybookDetails struct {
  Template      *types.PlaybookTemplate     `json:"template"`
  Items         []ItemProgress              `json:"items"`
  Progress      *types.UserPlaybookProgress `json:"progress"`
  NextAvailable *types.PlaybookItem         `json:"next_available_item,omitempty"`
}

type CompletionResult struct {
  Progress      *types.UserPlaybookProgress `json:"progress"`
  NextAvailable *types.PlaybookItem         `json:"next_available_item,omitempty"`
}

type PlaybookService interface {
  // GetPlaybookDetails assembles the display-ready view of one user's
  // journey through the named template. A read never creates a journey row.
  GetPlaybookDetails(ctx context.Context, userID uuid.UUID, templateName string) (*PlaybookDetails, error)
  // CompletePlaybookItem records a response for one step and recomputes the
  // journey's progress, atomically. Completing an already-completed step is
  // an amendment, not an error.
  CompletePlaybookItem(ctx context.Context, userID, playbookID, stepID uuid.UUID, payload datatypes.JSON) (*CompletionResult, error)
  // GetActivePlaybook returns the most recently started in-progress journey,
  // or nil when the user has none.
  GetActivePlaybook(ctx context.Context, userID uuid.UUID) (*types.UserPlaybookProgress, error)
  // StartPlaybook creates the journey row for (user, playbook) if absent.
  // Idempotent; the row stays not_started until the first completion.
  StartPlaybook(ctx context.Context, userID, playbookID uuid.UUID) (*types.UserPlaybookProgress, error)
  // StartPlaybookByName is StartPlaybook addressed by template name; it is
  // the entry point the signup auto-assignment collaborator calls.
  StartPlaybookByName(ctx context.Context, userID uuid.UUID, templateName string) (*types.UserPlaybookProgress, error)
  ListPlaybooks(ctx context.Context) ([]*types.PlaybookTemplate, error)
}

type playbookService struct {
  db           *gorm.DB
  log          *logger.Logger
  templateRepo repos.PlaybookTemplateRepo
  itemRepo     repos.PlaybookItemRepo
  progressRepo repos.UserPlaybookProgressRepo
  responseRepo repos.UserPlaybookResponseRepo
  cache        redisclient.TemplateCache
  now          func() time.Time
}

func NewPlaybookService(
  db *gorm.DB,
  baseLog *logger.Logger,
  templateRepo repos.PlaybookTemplateRepo,
  itemRepo repos.PlaybookItemRepo,
  progressRepo repos.UserPlaybookProgressRepo,
  responseRepo repos.UserPlaybookResponseRepo,
  cache redisclient.TemplateCache,
) PlaybookService {
  serviceLog := baseLog.With("service", "PlaybookService")
  return &playbookService{
    db:           db,
    log:          serviceLog,
    templateRepo: templateRepo,
    itemRepo:     itemRepo,
    progressRepo: progressRepo,
    responseRepo: responseRepo,
    cache:        cache,
    now:          time.Now,
  }
}

func (ps *playbookService) GetPlaybookDetails(ctx context.Context, userID uuid.UUID, templateName string) (*PlaybookDetails, error) {
  if userID == uuid.Nil {
    return nil, fmt.Errorf("user id required: %w", apperrors.ErrInvalidArgument)
  }

  template, items, err := ps.loadTemplateByName(ctx, templateName)
  if err != nil {
    return nil, err
  }

  progress, err := ps.progressRepo.GetByUserAndPlaybook(ctx, nil, userID, template.ID)
  if err != nil {
    return nil, storageErr("load playbook progress", err)
  }

  completed := map[uuid.UUID]struct{}{}
  if progress != nil {
    responses, rErr := ps.responseRepo.GetByJourneyID(ctx, nil, progress.ID)
    if rErr != nil {
      return nil, storageErr("load playbook responses", rErr)
    }
    for _, resp := range responses {
      completed[resp.StepID] = struct{}{}
    }
  }

  report := ComputeProgress(items, completed)
  if progress == nil {
    // Synthesized view only; reads never persist a journey.
    progress = &types.UserPlaybookProgress{
      UserID:             userID,
      PlaybookID:         template.ID,
      Status:             types.PlaybookStatusNotStarted,
      ProgressPercentage: report.Percentage,
    }
  }

  return &PlaybookDetails{
    Template:      template,
    Items:         report.Items,
    Progress:      progress,
    NextAvailable: report.NextAvailable,
  }, nil
}

func (ps *playbookService) CompletePlaybookItem(ctx context.Context, userID, playbookID, stepID uuid.UUID, payload datatypes.JSON) (*CompletionResult, error) {
  if userID == uuid.Nil || playbookID == uuid.Nil || stepID == uuid.Nil {
    return nil, fmt.Errorf("user, playbook and step ids required: %w", apperrors.ErrInvalidArgument)
  }

  templates, err := ps.templateRepo.GetByIDs(ctx, nil, []uuid.UUID{playbookID})
  if err != nil {
    return nil, storageErr("load playbook template", err)
  }
  if len(templates) == 0 || templates[0] == nil {
    return nil, fmt.Errorf("playbook %s: %w", playbookID, apperrors.ErrNotFound)
  }

  items, err := ps.itemRepo.GetByPlaybookID(ctx, nil, playbookID)
  if err != nil {
    return nil, storageErr("load playbook items", err)
  }
  if !containsStep(items, stepID) {
    return nil, fmt.Errorf("step %s does not belong to playbook %s: %w", stepID, playbookID, apperrors.ErrUnknownStep)
  }

  // A concurrent first completion can lose the journey-create race on the
  // unique (user_id, playbook_id) index; the rerun finds the winner's row.
  var result *CompletionResult
  for attempt := 0; ; attempt++ {
    result, err = ps.completeInTx(ctx, userID, playbookID, stepID, payload, items)
    if err != nil && attempt == 0 && repos.IsUniqueViolation(err) {
      ps.log.Debug("Journey create raced, retrying completion", "playbook_id", playbookID)
      continue
    }
    break
  }
  if err != nil {
    return nil, err
  }
  return result, nil
}

func (ps *playbookService) completeInTx(ctx context.Context, userID, playbookID, stepID uuid.UUID, payload datatypes.JSON, items []*types.PlaybookItem) (*CompletionResult, error) {
  var result *CompletionResult
  err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    progress, err := ps.progressRepo.GetByUserAndPlaybookForUpdate(ctx, tx, userID, playbookID)
    if err != nil {
      return storageErr("load playbook progress", err)
    }

    completed := map[uuid.UUID]struct{}{}
    if progress != nil {
      responses, rErr := ps.responseRepo.GetByJourneyID(ctx, tx, progress.ID)
      if rErr != nil {
        return storageErr("load playbook responses", rErr)
      }
      for _, resp := range responses {
        completed[resp.StepID] = struct{}{}
      }
    }

    // Precondition check happens before any write: a blocked rejection must
    // leave both tables untouched, including the journey row itself.
    before := ComputeProgress(items, completed)
    if before.StatusOf(stepID) == ItemStatusBlocked {
      return fmt.Errorf("step %s has unmet prerequisites: %w", stepID, apperrors.ErrStepBlocked)
    }

    now := ps.now()
    if progress == nil {
      progress = &types.UserPlaybookProgress{
        ID:         uuid.New(),
        UserID:     userID,
        PlaybookID: playbookID,
        Status:     types.PlaybookStatusInProgress,
        StartedAt:  &now,
      }
      if cErr := ps.progressRepo.Create(ctx, tx, progress); cErr != nil {
        if repos.IsUniqueViolation(cErr) {
          return cErr
        }
        return storageErr("create playbook progress", cErr)
      }
    }

    response := &types.UserPlaybookResponse{
      ID:          uuid.New(),
      JourneyID:   progress.ID,
      StepID:      stepID,
      Response:    payload,
      CompletedAt: now,
    }
    if uErr := ps.responseRepo.Upsert(ctx, tx, response); uErr != nil {
      return storageErr("upsert playbook response", uErr)
    }

    completed[stepID] = struct{}{}
    report := ComputeProgress(items, completed)

    progress.ProgressPercentage = report.Percentage
    if report.Percentage >= 100 && progress.Status != types.PlaybookStatusCompleted {
      progress.Status = types.PlaybookStatusCompleted
      if progress.CompletedAt == nil {
        progress.CompletedAt = &now
      }
    } else if progress.Status == types.PlaybookStatusNotStarted {
      progress.Status = types.PlaybookStatusInProgress
    }
    if progress.StartedAt == nil {
      progress.StartedAt = &now
    }

    if pErr := ps.progressRepo.Update(ctx, tx, progress); pErr != nil {
      return storageErr("persist playbook progress", pErr)
    }

    result = &CompletionResult{
      Progress:      progress,
      NextAvailable: report.NextAvailable,
    }
    return nil
  })
  if err != nil {
    return nil, err
  }
  return result, nil
}

func (ps *playbookService) GetActivePlaybook(ctx context.Context, userID uuid.UUID) (*types.UserPlaybookProgress, error) {
  if userID == uuid.Nil {
    return nil, fmt.Errorf("user id required: %w", apperrors.ErrInvalidArgument)
  }
  progress, err := ps.progressRepo.GetActiveByUserID(ctx, nil, userID)
  if err != nil {
    return nil, storageErr("load active playbook", err)
  }
  return progress, nil
}

func (ps *playbookService) StartPlaybook(ctx context.Context, userID, playbookID uuid.UUID) (*types.UserPlaybookProgress, error) {
  if userID == uuid.Nil || playbookID == uuid.Nil {
    return nil, fmt.Errorf("user and playbook ids required: %w", apperrors.ErrInvalidArgument)
  }

  templates, err := ps.templateRepo.GetByIDs(ctx, nil, []uuid.UUID{playbookID})
  if err != nil {
    return nil, storageErr("load playbook template", err)
  }
  if len(templates) == 0 || templates[0] == nil {
    return nil, fmt.Errorf("playbook %s: %w", playbookID, apperrors.ErrNotFound)
  }

  existing, err := ps.progressRepo.GetByUserAndPlaybook(ctx, nil, userID, playbookID)
  if err != nil {
    return nil, storageErr("load playbook progress", err)
  }
  if existing != nil {
    return existing, nil
  }

  // started_at stays unset until the first completed item.
  progress := &types.UserPlaybookProgress{
    ID:         uuid.New(),
    UserID:     userID,
    PlaybookID: playbookID,
    Status:     types.PlaybookStatusNotStarted,
  }
  if err := ps.progressRepo.Create(ctx, nil, progress); err != nil {
    if repos.IsUniqueViolation(err) {
      return ps.progressRepo.GetByUserAndPlaybook(ctx, nil, userID, playbookID)
    }
    return nil, storageErr("create playbook progress", err)
  }
  return progress, nil
}

func (ps *playbookService) StartPlaybookByName(ctx context.Context, userID uuid.UUID, templateName string) (*types.UserPlaybookProgress, error) {
  template, _, err := ps.loadTemplateByName(ctx, templateName)
  if err != nil {
    return nil, err
  }
  return ps.StartPlaybook(ctx, userID, template.ID)
}

func (ps *playbookService) ListPlaybooks(ctx context.Context) ([]*types.PlaybookTemplate, error) {
  templates, err := ps.templateRepo.GetAll(ctx, nil)
  if err != nil {
    return nil, storageErr("list playbook templates", err)
  }
  return templates, nil
}

// loadTemplateByName resolves a template and its ordered items, read-through
// the redis cache when one is configured. Template definitions are immutable
// once created, so a TTL-bounded cache never serves stale journey state.
func (ps *playbookService) loadTemplateByName(ctx context.Context, templateName string) (*types.PlaybookTemplate, []*types.PlaybookItem, error) {
  if templateName == "" {
    return nil, nil, fmt.Errorf("template name required: %w", apperrors.ErrInvalidArgument)
  }

  if ps.cache != nil {
    cached, err := ps.cache.Get(ctx, templateName)
    if err != nil {
      ps.log.Debug("Template cache read failed, falling back to postgres", "error", err)
    } else if cached != nil && cached.Template != nil {
      return cached.Template, cached.Items, nil
    }
  }

  template, err := ps.templateRepo.GetByName(ctx, nil, templateName)
  if err != nil {
    return nil, nil, storageErr("load playbook template", err)
  }
  if template == nil {
    return nil, nil, fmt.Errorf("playbook template %q: %w", templateName, apperrors.ErrNotFound)
  }

  items, err := ps.itemRepo.GetByPlaybookID(ctx, nil, template.ID)
  if err != nil {
    return nil, nil, storageErr("load playbook items", err)
  }

  if ps.cache != nil {
    if err := ps.cache.Set(ctx, templateName, &redisclient.CachedPlaybook{Template: template, Items: items}); err != nil {
      ps.log.Debug("Template cache write failed", "error", err)
    }
  }
  return template, items, nil
}

func containsStep(items []*types.PlaybookItem, stepID uuid.UUID) bool {
  for _, item := range items {
    if item != nil && item.ID == stepID {
      return true
    }
  }
  return false
}

func storageErr(op string, err error) error {
  return fmt.Errorf("%s: %w: %v", op, apperrors.ErrStorageUnavailable, err)
}

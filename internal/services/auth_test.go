package services

import (
  "context"
  "errors"
  "testing"
  "time"

  "github.com/nexushq/nexus-backend/internal/logger"
  apperrors "github.com/nexushq/nexus-backend/internal/pkg/errors"
  "github.com/nexushq/nexus-backend/internal/repos"
  "github.com/nexushq/nexus-backend/internal/requestdata"
  "github.com/nexushq/nexus-backend/internal/types"
)

type authTestEnv struct {
  *playbookTestEnv
  auth     AuthService
  userRepo repos.UserRepo
  log      *logger.Logger
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
  t.Helper()
  base := newPlaybookTestEnv(t)
  log := newTestLogger(t)
  userRepo := repos.NewUserRepo(base.db, log)
  return &authTestEnv{
    playbookTestEnv: base,
    auth:            NewAuthService(base.db, log, userRepo, base.svc, "onboarding", "test-secret", time.Hour),
    userRepo:        userRepo,
    log:             log,
  }
}

func TestRegisterUserAssignsOnboarding(t *testing.T) {
  env := newAuthTestEnv(t)
  ctx := context.Background()
  template, _ := env.seedPlaybook(t, "onboarding", true, true)

  user, token, err := env.auth.RegisterUser(ctx, "Ada@Example.com", "hunter22", "Ada", "Lovelace")
  if err != nil {
    t.Fatalf("register: %v", err)
  }
  if token == "" {
    t.Fatal("no access token issued")
  }
  if user.Email != "ada@example.com" {
    t.Fatalf("email = %q, want lowercased", user.Email)
  }

  // Signup auto-assignment: the journey exists but has not begun.
  progress, err := env.progressRepo.GetByUserAndPlaybook(ctx, nil, user.ID, template.ID)
  if err != nil || progress == nil {
    t.Fatalf("onboarding journey missing: %v", err)
  }
  if progress.Status != types.PlaybookStatusNotStarted || progress.StartedAt != nil {
    t.Fatalf("journey = %q/%v, want not_started with nil started_at", progress.Status, progress.StartedAt)
  }

  if _, _, err := env.auth.RegisterUser(ctx, "ada@example.com", "other", "A", "L"); !errors.Is(err, apperrors.ErrInvalidArgument) {
    t.Fatalf("duplicate email: err = %v, want ErrInvalidArgument", err)
  }
}

func TestRegisterUserSurvivesMissingOnboardingTemplate(t *testing.T) {
  env := newAuthTestEnv(t)

  // No templates seeded at all; registration still succeeds.
  user, _, err := env.auth.RegisterUser(context.Background(), "bo@example.com", "pw", "Bo", "Ek")
  if err != nil {
    t.Fatalf("register without template: %v", err)
  }
  if user == nil {
    t.Fatal("no user returned")
  }
  if n := env.countRows(t, &types.UserPlaybookProgress{}); n != 0 {
    t.Fatalf("%d journey rows without a template, want 0", n)
  }
}

func TestLoginUser(t *testing.T) {
  env := newAuthTestEnv(t)
  ctx := context.Background()

  if _, _, err := env.auth.RegisterUser(ctx, "ada@example.com", "hunter22", "Ada", "Lovelace"); err != nil {
    t.Fatalf("register: %v", err)
  }

  user, token, err := env.auth.LoginUser(ctx, "ada@example.com", "hunter22")
  if err != nil {
    t.Fatalf("login: %v", err)
  }
  if token == "" || user.Email != "ada@example.com" {
    t.Fatalf("login result = %q/%q", user.Email, token)
  }

  if _, _, err := env.auth.LoginUser(ctx, "ada@example.com", "wrong"); !errors.Is(err, apperrors.ErrUnauthorized) {
    t.Fatalf("bad password: err = %v, want ErrUnauthorized", err)
  }
  if _, _, err := env.auth.LoginUser(ctx, "nobody@example.com", "hunter22"); !errors.Is(err, apperrors.ErrUnauthorized) {
    t.Fatalf("unknown email: err = %v, want ErrUnauthorized", err)
  }
}

func TestSetContextFromToken(t *testing.T) {
  env := newAuthTestEnv(t)
  ctx := context.Background()

  user, token, err := env.auth.RegisterUser(ctx, "ada@example.com", "hunter22", "Ada", "Lovelace")
  if err != nil {
    t.Fatalf("register: %v", err)
  }

  authed, err := env.auth.SetContextFromToken(ctx, token)
  if err != nil {
    t.Fatalf("token roundtrip: %v", err)
  }
  rd := requestdata.GetRequestData(authed)
  if rd == nil || rd.UserID != user.ID {
    t.Fatalf("request data = %+v, want user %s", rd, user.ID)
  }

  if _, err := env.auth.SetContextFromToken(ctx, "not-a-token"); !errors.Is(err, apperrors.ErrUnauthorized) {
    t.Fatalf("garbage token: err = %v, want ErrUnauthorized", err)
  }
  if _, err := env.auth.SetContextFromToken(ctx, ""); !errors.Is(err, apperrors.ErrUnauthorized) {
    t.Fatalf("empty token: err = %v, want ErrUnauthorized", err)
  }
}

package services

import (
  "context"
  "fmt"
  "strings"
  "time"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "golang.org/x/crypto/bcrypt"
  "gorm.io/gorm"

  "github.com/nexushq/nexus-backend/internal/logger"
  apperrors "github.com/nexushq/nexus-backend/internal/pkg/errors"
  "github.com/nexushq/nexus-backend/internal/repos"
  "github.com/nexushq/nexus-backend/internal/requestdata"
  "github.com/nexushq/nexus-backend/internal/types"
)

type AuthService interface {
  RegisterUser(ctx context.Context, email, password, firstName, lastName string) (*types.User, string, error)
  LoginUser(ctx context.Context, email, password string) (*types.User, string, error)
  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
  db                 *gorm.DB
  log                *logger.Logger
  userRepo           repos.UserRepo
  playbookService    PlaybookService
  onboardingPlaybook string
  jwtSecretKey       string
  accessTTL          time.Duration
}

func NewAuthService(
  db *gorm.DB,
  baseLog *logger.Logger,
  userRepo repos.UserRepo,
  playbookService PlaybookService,
  onboardingPlaybook string,
  jwtSecretKey string,
  accessTTL time.Duration,
) AuthService {
  serviceLog := baseLog.With("service", "AuthService")
  return &authService{
    db:                 db,
    log:                serviceLog,
    userRepo:           userRepo,
    playbookService:    playbookService,
    onboardingPlaybook: onboardingPlaybook,
    jwtSecretKey:       jwtSecretKey,
    accessTTL:          accessTTL,
  }
}

func (as *authService) RegisterUser(ctx context.Context, email, password, firstName, lastName string) (*types.User, string, error) {
  email = strings.ToLower(strings.TrimSpace(email))
  if email == "" || password == "" || strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
    return nil, "", fmt.Errorf("email, password, first and last name are required: %w", apperrors.ErrInvalidArgument)
  }

  exists, err := as.userRepo.EmailExists(ctx, nil, email)
  if err != nil {
    return nil, "", storageErr("check user email", err)
  }
  if exists {
    return nil, "", fmt.Errorf("email is already in use: %w", apperrors.ErrInvalidArgument)
  }

  hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
  if err != nil {
    return nil, "", fmt.Errorf("hash password: %w", err)
  }

  user := &types.User{
    ID:        uuid.New(),
    Email:     email,
    Password:  string(hashed),
    FirstName: strings.TrimSpace(firstName),
    LastName:  strings.TrimSpace(lastName),
  }
  if _, err := as.userRepo.Create(ctx, nil, []*types.User{user}); err != nil {
    return nil, "", storageErr("create user", err)
  }

  // Signup auto-assignment: give the new user their onboarding journey.
  // Registration never fails because the template is missing.
  if as.onboardingPlaybook != "" && as.playbookService != nil {
    if _, err := as.playbookService.StartPlaybookByName(ctx, user.ID, as.onboardingPlaybook); err != nil {
      as.log.Warn("Onboarding playbook assignment failed", "playbook", as.onboardingPlaybook, "error", err)
    }
  }

  token, err := as.generateAccessToken(user)
  if err != nil {
    return nil, "", err
  }
  return user, token, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (*types.User, string, error) {
  email = strings.ToLower(strings.TrimSpace(email))
  if email == "" || password == "" {
    return nil, "", fmt.Errorf("email and password are required: %w", apperrors.ErrInvalidArgument)
  }

  users, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
  if err != nil {
    return nil, "", storageErr("load user", err)
  }
  if len(users) == 0 || users[0] == nil {
    return nil, "", fmt.Errorf("invalid email or password: %w", apperrors.ErrUnauthorized)
  }

  user := users[0]
  if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
    return nil, "", fmt.Errorf("invalid email or password: %w", apperrors.ErrUnauthorized)
  }

  token, err := as.generateAccessToken(user)
  if err != nil {
    return nil, "", err
  }
  return user, token, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  if tokenString == "" {
    return nil, fmt.Errorf("missing token: %w", apperrors.ErrUnauthorized)
  }

  token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
    if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
    }
    return []byte(as.jwtSecretKey), nil
  })
  if err != nil || !token.Valid {
    return nil, fmt.Errorf("invalid token: %w", apperrors.ErrUnauthorized)
  }

  subject, err := token.Claims.GetSubject()
  if err != nil || subject == "" {
    return nil, fmt.Errorf("token missing subject: %w", apperrors.ErrUnauthorized)
  }
  userID, err := uuid.Parse(subject)
  if err != nil {
    return nil, fmt.Errorf("token subject is not a user id: %w", apperrors.ErrUnauthorized)
  }

  users, err := as.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
  if err != nil {
    return nil, storageErr("load user", err)
  }
  if len(users) == 0 || users[0] == nil {
    return nil, fmt.Errorf("user no longer exists: %w", apperrors.ErrUnauthorized)
  }

  return requestdata.WithRequestData(ctx, &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      userID,
  }), nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
  now := time.Now()
  claims := jwt.RegisteredClaims{
    Subject:   user.ID.String(),
    IssuedAt:  jwt.NewNumericDate(now),
    ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  signed, err := token.SignedString([]byte(as.jwtSecretKey))
  if err != nil {
    return "", fmt.Errorf("sign access token: %w", err)
  }
  return signed, nil
}

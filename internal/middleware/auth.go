package middleware

import (
  "fmt"
  "strings"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/nexushq/nexus-backend/internal/logger"
  apperrors "github.com/nexushq/nexus-backend/internal/pkg/errors"
  "github.com/nexushq/nexus-backend/internal/requestdata"
  "github.com/nexushq/nexus-backend/internal/response"
  "github.com/nexushq/nexus-backend/internal/services"
)

type AuthMiddleware struct {
  log         *logger.Logger
  authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
  middlewareLog := log.With("middleware", "AuthMiddleware")
  return &AuthMiddleware{log: middlewareLog, authService: authService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
  return func(c *gin.Context) {
    tokenString := extractToken(c)
    ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
    if err != nil {
      response.RespondError(c, err)
      c.Abort()
      return
    }
    c.Request = c.Request.WithContext(ctx)
    rd := requestdata.GetRequestData(ctx)
    if rd == nil || rd.UserID == uuid.Nil {
      response.RespondError(c, fmt.Errorf("forbidden: %w", apperrors.ErrUnauthorized))
      c.Abort()
      return
    }
    c.Next()
  }
}

func extractToken(c *gin.Context) string {
  if qToken := c.Query("token"); qToken != "" {
    return qToken
  }
  authHeader := c.GetHeader("Authorization")
  if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
    return authHeader[7:]
  }
  return ""
}

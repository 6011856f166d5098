package handlers

import (
  "fmt"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  apperrors "github.com/nexushq/nexus-backend/internal/pkg/errors"
  "github.com/nexushq/nexus-backend/internal/requestdata"
)

func invalidBody(err error) error {
  return fmt.Errorf("invalid request body: %w: %v", apperrors.ErrInvalidArgument, err)
}

func currentUserID(c *gin.Context) (uuid.UUID, error) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    return uuid.Nil, fmt.Errorf("request data not set in context: %w", apperrors.ErrUnauthorized)
  }
  return rd.UserID, nil
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, error) {
  id, err := uuid.Parse(c.Param(name))
  if err != nil {
    return uuid.Nil, fmt.Errorf("invalid %s: %w", name, apperrors.ErrInvalidArgument)
  }
  return id, nil
}

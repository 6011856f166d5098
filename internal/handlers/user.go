package handlers

import (
  "github.com/gin-gonic/gin"

  "github.com/nexushq/nexus-backend/internal/response"
  "github.com/nexushq/nexus-backend/internal/services"
)

type UserHandler struct {
  svc services.UserService
}

func NewUserHandler(svc services.UserService) *UserHandler {
  return &UserHandler{svc: svc}
}

// GET /api/user
func (h *UserHandler) GetMe(c *gin.Context) {
  user, err := h.svc.GetMe(c.Request.Context())
  if err != nil {
    response.RespondError(c, err)
    return
  }
  response.RespondOK(c, gin.H{"user": user})
}

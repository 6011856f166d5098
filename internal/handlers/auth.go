package handlers

import (
  "github.com/gin-gonic/gin"

  "github.com/nexushq/nexus-backend/internal/response"
  "github.com/nexushq/nexus-backend/internal/services"
)

type AuthHandler struct {
  svc services.AuthService
}

func NewAuthHandler(svc services.AuthService) *AuthHandler {
  return &AuthHandler{svc: svc}
}

type registerRequest struct {
  Email     string `json:"email"`
  Password  string `json:"password"`
  FirstName string `json:"first_name"`
  LastName  string `json:"last_name"`
}

// POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
  var req registerRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    response.RespondError(c, invalidBody(err))
    return
  }

  user, token, err := h.svc.RegisterUser(c.Request.Context(), req.Email, req.Password, req.FirstName, req.LastName)
  if err != nil {
    response.RespondError(c, err)
    return
  }

  response.RespondCreated(c, gin.H{"user": user, "access_token": token})
}

type loginRequest struct {
  Email    string `json:"email"`
  Password string `json:"password"`
}

// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
  var req loginRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    response.RespondError(c, invalidBody(err))
    return
  }

  user, token, err := h.svc.LoginUser(c.Request.Context(), req.Email, req.Password)
  if err != nil {
    response.RespondError(c, err)
    return
  }

  response.RespondOK(c, gin.H{"user": user, "access_token": token})
}

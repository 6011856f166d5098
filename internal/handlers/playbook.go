package handlers

import (
  "github.com/gin-gonic/gin"
  "gorm.io/datatypes"

  "github.com/nexushq/nexus-backend/internal/response"
  "github.com/nexushq/nexus-backend/internal/services"
)

type PlaybookHandler struct {
  svc services.PlaybookService
}

func NewPlaybookHandler(svc services.PlaybookService) *PlaybookHandler {
  return &PlaybookHandler{svc: svc}
}

// GET /api/playbooks
func (h *PlaybookHandler) ListPlaybooks(c *gin.Context) {
  templates, err := h.svc.ListPlaybooks(c.Request.Context())
  if err != nil {
    response.RespondError(c, err)
    return
  }
  response.RespondOK(c, gin.H{"playbooks": templates})
}

// GET /api/playbooks/active
func (h *PlaybookHandler) GetActivePlaybook(c *gin.Context) {
  userID, err := currentUserID(c)
  if err != nil {
    response.RespondError(c, err)
    return
  }

  progress, err := h.svc.GetActivePlaybook(c.Request.Context(), userID)
  if err != nil {
    response.RespondError(c, err)
    return
  }
  // progress is null when the user has no in-progress journey; not an error.
  response.RespondOK(c, gin.H{"progress": progress})
}

// GET /api/playbooks/:name
func (h *PlaybookHandler) GetPlaybookDetails(c *gin.Context) {
  userID, err := currentUserID(c)
  if err != nil {
    response.RespondError(c, err)
    return
  }

  details, err := h.svc.GetPlaybookDetails(c.Request.Context(), userID, c.Param("name"))
  if err != nil {
    response.RespondError(c, err)
    return
  }
  response.RespondOK(c, details)
}

// POST /api/playbooks/:id/start
func (h *PlaybookHandler) StartPlaybook(c *gin.Context) {
  userID, err := currentUserID(c)
  if err != nil {
    response.RespondError(c, err)
    return
  }
  playbookID, err := parseIDParam(c, "id")
  if err != nil {
    response.RespondError(c, err)
    return
  }

  progress, err := h.svc.StartPlaybook(c.Request.Context(), userID, playbookID)
  if err != nil {
    response.RespondError(c, err)
    return
  }
  response.RespondOK(c, gin.H{"progress": progress})
}

type completeItemRequest struct {
  Response datatypes.JSON `json:"response"`
}

// POST /api/playbooks/:id/items/:itemId/complete
func (h *PlaybookHandler) CompletePlaybookItem(c *gin.Context) {
  userID, err := currentUserID(c)
  if err != nil {
    response.RespondError(c, err)
    return
  }
  playbookID, err := parseIDParam(c, "id")
  if err != nil {
    response.RespondError(c, err)
    return
  }
  stepID, err := parseIDParam(c, "itemId")
  if err != nil {
    response.RespondError(c, err)
    return
  }

  var req completeItemRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    response.RespondError(c, invalidBody(err))
    return
  }

  result, err := h.svc.CompletePlaybookItem(c.Request.Context(), userID, playbookID, stepID, req.Response)
  if err != nil {
    response.RespondError(c, err)
    return
  }
  response.RespondOK(c, result)
}

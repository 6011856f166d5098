package handlers

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "net/http"
  "net/http/httptest"
  "strings"
  "testing"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "gorm.io/driver/sqlite"
  "gorm.io/gorm"

  "github.com/nexushq/nexus-backend/internal/logger"
  "github.com/nexushq/nexus-backend/internal/repos"
  "github.com/nexushq/nexus-backend/internal/requestdata"
  "github.com/nexushq/nexus-backend/internal/response"
  "github.com/nexushq/nexus-backend/internal/services"
  "github.com/nexushq/nexus-backend/internal/types"
)

type playbookRouterEnv struct {
  router       *gin.Engine
  userID       uuid.UUID
  templateRepo repos.PlaybookTemplateRepo
  itemRepo     repos.PlaybookItemRepo
}

func newPlaybookRouterEnv(t *testing.T) *playbookRouterEnv {
  t.Helper()
  gin.SetMode(gin.TestMode)

  name := strings.ReplaceAll(t.Name(), "/", "_")
  dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
  gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
  if err != nil {
    t.Fatalf("open sqlite: %v", err)
  }
  sqlDB, err := gdb.DB()
  if err != nil {
    t.Fatalf("unwrap sql.DB: %v", err)
  }
  sqlDB.SetMaxOpenConns(1)
  if err := gdb.AutoMigrate(
    &types.PlaybookTemplate{},
    &types.PlaybookItem{},
    &types.UserPlaybookProgress{},
    &types.UserPlaybookResponse{},
  ); err != nil {
    t.Fatalf("migrate: %v", err)
  }
  t.Cleanup(func() { _ = sqlDB.Close() })

  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("init logger: %v", err)
  }

  env := &playbookRouterEnv{
    userID:       uuid.New(),
    templateRepo: repos.NewPlaybookTemplateRepo(gdb, log),
    itemRepo:     repos.NewPlaybookItemRepo(gdb, log),
  }
  svc := services.NewPlaybookService(
    gdb, log,
    env.templateRepo,
    env.itemRepo,
    repos.NewUserPlaybookProgressRepo(gdb, log),
    repos.NewUserPlaybookResponseRepo(gdb, log),
    nil,
  )
  h := NewPlaybookHandler(svc)

  // Stand-in for the JWT middleware: the routes under test only need
  // request data in the context.
  authStub := func(c *gin.Context) {
    ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{UserID: env.userID})
    c.Request = c.Request.WithContext(ctx)
    c.Next()
  }

  router := gin.New()
  api := router.Group("/api", authStub)
  api.GET("/playbooks", h.ListPlaybooks)
  api.GET("/playbooks/active", h.GetActivePlaybook)
  api.GET("/playbooks/:name", h.GetPlaybookDetails)
  api.POST("/playbooks/:id/start", h.StartPlaybook)
  api.POST("/playbooks/:id/items/:itemId/complete", h.CompletePlaybookItem)

  // Same handler without the auth stub, for the unauthorized path.
  router.GET("/bare/playbooks/active", h.GetActivePlaybook)

  env.router = router
  return env
}

func (env *playbookRouterEnv) seedPlaybook(t *testing.T, name string, required ...bool) (*types.PlaybookTemplate, []*types.PlaybookItem) {
  t.Helper()
  ctx := context.Background()

  template := &types.PlaybookTemplate{ID: uuid.New(), Name: name}
  if _, err := env.templateRepo.Create(ctx, nil, []*types.PlaybookTemplate{template}); err != nil {
    t.Fatalf("create template: %v", err)
  }
  items := make([]*types.PlaybookItem, 0, len(required))
  for i, req := range required {
    items = append(items, &types.PlaybookItem{
      ID:         uuid.New(),
      PlaybookID: template.ID,
      OrderIndex: i + 1,
      Title:      fmt.Sprintf("Step %d", i+1),
      Required:   req,
    })
  }
  if _, err := env.itemRepo.Create(ctx, nil, items); err != nil {
    t.Fatalf("create items: %v", err)
  }
  return template, items
}

func (env *playbookRouterEnv) do(t *testing.T, method, path string, body string) *httptest.ResponseRecorder {
  t.Helper()
  var reader *bytes.Reader
  if body == "" {
    reader = bytes.NewReader(nil)
  } else {
    reader = bytes.NewReader([]byte(body))
  }
  req := httptest.NewRequest(method, path, reader)
  req.Header.Set("Content-Type", "application/json")
  rec := httptest.NewRecorder()
  env.router.ServeHTTP(rec, req)
  return rec
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
  t.Helper()
  var envelope response.ErrorEnvelope
  if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
    t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
  }
  return envelope.Error.Code
}

func TestCompletePlaybookItemEndpoint(t *testing.T) {
  env := newPlaybookRouterEnv(t)
  template, items := env.seedPlaybook(t, "onboarding", true, true)

  completePath := func(itemID uuid.UUID) string {
    return fmt.Sprintf("/api/playbooks/%s/items/%s/complete", template.ID, itemID)
  }

  rec := env.do(t, http.MethodPost, completePath(items[0].ID), `{"response":{"ok":true}}`)
  if rec.Code != http.StatusOK {
    t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
  }
  var result services.CompletionResult
  if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
    t.Fatalf("decode result: %v", err)
  }
  if result.Progress == nil || result.Progress.ProgressPercentage != 50 {
    t.Fatalf("result = %+v, want 50%%", result.Progress)
  }
}

func TestCompletePlaybookItemEndpointErrors(t *testing.T) {
  env := newPlaybookRouterEnv(t)
  template, items := env.seedPlaybook(t, "onboarding", true, true)

  cases := []struct {
    name     string
    path     string
    wantCode int
    wantErr  string
  }{
    {
      "blocked step",
      fmt.Sprintf("/api/playbooks/%s/items/%s/complete", template.ID, items[1].ID),
      http.StatusConflict, "step_blocked",
    },
    {
      "unknown step",
      fmt.Sprintf("/api/playbooks/%s/items/%s/complete", template.ID, uuid.New()),
      http.StatusNotFound, "unknown_step",
    },
    {
      "unknown playbook",
      fmt.Sprintf("/api/playbooks/%s/items/%s/complete", uuid.New(), items[0].ID),
      http.StatusNotFound, "not_found",
    },
    {
      "malformed playbook id",
      fmt.Sprintf("/api/playbooks/not-a-uuid/items/%s/complete", items[0].ID),
      http.StatusBadRequest, "invalid_argument",
    },
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      rec := env.do(t, http.MethodPost, tc.path, `{"response":{}}`)
      if rec.Code != tc.wantCode {
        t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.wantCode, rec.Body.String())
      }
      if got := decodeErrorCode(t, rec); got != tc.wantErr {
        t.Fatalf("error code = %q, want %q", got, tc.wantErr)
      }
    })
  }
}

func TestGetActivePlaybookEndpoint(t *testing.T) {
  env := newPlaybookRouterEnv(t)
  template, items := env.seedPlaybook(t, "onboarding", true, true)

  rec := env.do(t, http.MethodGet, "/api/playbooks/active", "")
  if rec.Code != http.StatusOK {
    t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
  }
  var body struct {
    Progress *types.UserPlaybookProgress `json:"progress"`
  }
  if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
    t.Fatalf("decode body: %v", err)
  }
  if body.Progress != nil {
    t.Fatalf("progress = %+v before any activity, want null", body.Progress)
  }

  completePath := fmt.Sprintf("/api/playbooks/%s/items/%s/complete", template.ID, items[0].ID)
  if rec := env.do(t, http.MethodPost, completePath, `{"response":{}}`); rec.Code != http.StatusOK {
    t.Fatalf("complete: status = %d, body %s", rec.Code, rec.Body.String())
  }

  rec = env.do(t, http.MethodGet, "/api/playbooks/active", "")
  if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
    t.Fatalf("decode body: %v", err)
  }
  if body.Progress == nil || body.Progress.PlaybookID != template.ID {
    t.Fatalf("progress = %+v, want active journey for %s", body.Progress, template.ID)
  }
}

func TestGetPlaybookDetailsEndpoint(t *testing.T) {
  env := newPlaybookRouterEnv(t)
  env.seedPlaybook(t, "onboarding", true, true, true)

  rec := env.do(t, http.MethodGet, "/api/playbooks/onboarding", "")
  if rec.Code != http.StatusOK {
    t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
  }
  var details services.PlaybookDetails
  if err := json.Unmarshal(rec.Body.Bytes(), &details); err != nil {
    t.Fatalf("decode details: %v", err)
  }
  if details.Template == nil || details.Template.Name != "onboarding" {
    t.Fatalf("template = %+v", details.Template)
  }
  if len(details.Items) != 3 || details.Items[0].Status != services.ItemStatusAvailable {
    t.Fatalf("items = %+v", details.Items)
  }

  rec = env.do(t, http.MethodGet, "/api/playbooks/no-such-playbook", "")
  if rec.Code != http.StatusNotFound {
    t.Fatalf("status = %d, want 404", rec.Code)
  }
  if got := decodeErrorCode(t, rec); got != "not_found" {
    t.Fatalf("error code = %q, want not_found", got)
  }
}

func TestStartPlaybookEndpoint(t *testing.T) {
  env := newPlaybookRouterEnv(t)
  template, _ := env.seedPlaybook(t, "onboarding", true)

  rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/playbooks/%s/start", template.ID), "")
  if rec.Code != http.StatusOK {
    t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
  }
  var body struct {
    Progress *types.UserPlaybookProgress `json:"progress"`
  }
  if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
    t.Fatalf("decode body: %v", err)
  }
  if body.Progress == nil || body.Progress.Status != types.PlaybookStatusNotStarted {
    t.Fatalf("progress = %+v, want a not_started journey", body.Progress)
  }
}

func TestPlaybookEndpointsRequireRequestData(t *testing.T) {
  env := newPlaybookRouterEnv(t)

  rec := env.do(t, http.MethodGet, "/bare/playbooks/active", "")
  if rec.Code != http.StatusUnauthorized {
    t.Fatalf("status = %d, want 401", rec.Code)
  }
  if got := decodeErrorCode(t, rec); got != "unauthorized" {
    t.Fatalf("error code = %q, want unauthorized", got)
  }
}

package dependency

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/lifeos/backend/config"
	"github.com/lifeos/backend/internal/domain/entity"
	"github.com/lifeos/backend/internal/infra/db"
	"github.com/lifeos/backend/internal/integration/entrypoint/dto"
)

type apiClient struct {
	t      *testing.T
	engine *gin.Engine
	token  string
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()

	cfg := config.Load()
	cfg.Server.Environment = "test"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.BcryptCost = 4
	cfg.RateLimit.Enabled = false
	cfg.Database.URL = "sqlite://file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"

	database, err := db.NewConnection(&cfg.Database)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	if err := database.AutoMigrate(Models()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	up := func(context.Context) bool { return true }
	injector := NewInjector(cfg, database.DB(), rdb, up, up)
	t.Cleanup(injector.Close)

	return &apiClient{t: t, engine: injector.Router.Setup(cfg.Server.Environment)}
}

func (c *apiClient) do(method, path string, body interface{}, out interface{}) int {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.engine.ServeHTTP(w, req)

	if out != nil && w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			c.t.Fatalf("failed to decode %s %s response %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code
}

func (c *apiClient) register(email string) dto.AuthResponse {
	c.t.Helper()
	var resp dto.AuthResponse
	code := c.do(http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
		Email:    email,
		Name:     "Test User",
		Password: "secret123",
	}, &resp)
	if code != http.StatusCreated {
		c.t.Fatalf("register: expected 201, got %d", code)
	}
	c.token = resp.AccessToken
	return resp
}

func TestAPI_HealthAndAuthRequired(t *testing.T) {
	api := newAPI(t)

	var health map[string]interface{}
	if code := api.do(http.MethodGet, "/health", nil, &health); code != http.StatusOK {
		t.Errorf("expected 200, got %d", code)
	}
	if code := api.do(http.MethodGet, "/api/v1/tasks", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", code)
	}
}

func TestAPI_TaskLifecycle(t *testing.T) {
	api := newAPI(t)
	api.register("tasks@example.com")

	var task entity.Task
	if code := api.do(http.MethodPost, "/api/v1/tasks", map[string]interface{}{"title": "Write report", "priority": "high"}, &task); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if task.ID == "" || task.Status != entity.TaskStatusTodo {
		t.Fatalf("unexpected task %+v", task)
	}

	var errResp dto.ErrorResponse
	if code := api.do(http.MethodPost, "/api/v1/tasks", map[string]interface{}{"title": ""}, &errResp); code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for empty title, got %d", code)
	}
	if len(errResp.Fields) == 0 {
		t.Error("expected field errors in the response")
	}

	var completion struct {
		Task   entity.Task `json:"task"`
		Reward struct {
			XP int `json:"xp"`
		} `json:"reward"`
	}
	if code := api.do(http.MethodPost, "/api/v1/tasks/"+task.ID+"/complete", nil, &completion); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if completion.Task.Status != entity.TaskStatusCompleted || completion.Reward.XP <= 0 {
		t.Errorf("unexpected completion %+v", completion)
	}

	var stats entity.Stats
	if code := api.do(http.MethodGet, "/api/v1/stats", nil, &stats); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if stats.TasksCompleted != 1 || stats.TotalXP < completion.Reward.XP {
		t.Errorf("unexpected stats %+v", stats)
	}

	if code := api.do(http.MethodDelete, "/api/v1/tasks/"+task.ID, nil, nil); code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", code)
	}
	if code := api.do(http.MethodGet, "/api/v1/tasks/"+task.ID, nil, nil); code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", code)
	}
}

func TestAPI_StoresAreIsolatedPerUser(t *testing.T) {
	api := newAPI(t)
	api.register("alice@example.com")
	if code := api.do(http.MethodPost, "/api/v1/habits", map[string]interface{}{"title": "Read", "frequency": "daily"}, nil); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}

	api.register("bob@example.com")
	var habits []entity.Habit
	if code := api.do(http.MethodGet, "/api/v1/habits", nil, &habits); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(habits) != 0 {
		t.Errorf("expected bob to see no habits, got %d", len(habits))
	}
}

func TestAPI_SyncRunPublishesToCloud(t *testing.T) {
	api := newAPI(t)
	api.register("sync@example.com")

	if code := api.do(http.MethodPost, "/api/v1/tasks", map[string]interface{}{"title": "Sync me"}, nil); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}

	var status dto.SyncStatusResponse
	api.do(http.MethodGet, "/api/v1/sync/status", nil, &status)
	if status.Pending != 1 {
		t.Errorf("expected 1 pending change, got %d", status.Pending)
	}

	var report dto.SyncReportResponse
	if code := api.do(http.MethodPost, "/api/v1/sync/run", nil, &report); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if report.Pushed != 1 || report.Rejected != 0 {
		t.Errorf("unexpected report %+v", report)
	}

	var pull dto.SyncPullResponse
	if code := api.do(http.MethodPost, "/api/v1/sync/pull", dto.SyncPullRequest{}, &pull); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(pull.Entities) != 1 || pull.Entities[0].EntityType != entity.EntityTypeTask || pull.Token == "" {
		t.Errorf("unexpected pull %+v", pull)
	}

	var conflicts dto.ConflictListResponse
	if code := api.do(http.MethodGet, "/api/v1/sync/conflicts", nil, &conflicts); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(conflicts.Conflicts) != 0 {
		t.Errorf("expected no conflicts, got %d", len(conflicts.Conflicts))
	}
	if code := api.do(http.MethodPost, "/api/v1/sync/conflicts/missing/resolve", map[string]string{"strategy": "merge"}, nil); code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown conflict, got %d", code)
	}
}

func TestAPI_ExportImportAndClear(t *testing.T) {
	api := newAPI(t)
	api.register("backup@example.com")
	api.do(http.MethodPost, "/api/v1/goals", map[string]interface{}{"title": "Run a marathon"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export", nil)
	req.Header.Set("Authorization", "Bearer "+api.token)
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "lifeos-export-"+time.Now().UTC().Format("2006-01-02")) {
		t.Errorf("unexpected content disposition %q", cd)
	}
	backup := w.Body.Bytes()

	if code := api.do(http.MethodDelete, "/api/v1/data", nil, nil); code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", code)
	}
	var goals []entity.Goal
	api.do(http.MethodGet, "/api/v1/goals", nil, &goals)
	if len(goals) != 0 {
		t.Fatalf("expected no goals after clear, got %d", len(goals))
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/import", bytes.NewReader(backup))
	req.Header.Set("Authorization", "Bearer "+api.token)
	w = httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	api.do(http.MethodGet, "/api/v1/goals", nil, &goals)
	if len(goals) != 1 || goals[0].Title != "Run a marathon" {
		t.Errorf("expected restored goal, got %+v", goals)
	}

	if code := api.do(http.MethodPost, "/api/v1/import", map[string]string{"version": "nope"}, nil); code != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed backup, got %d", code)
	}
}

func TestAPI_DeleteAccount(t *testing.T) {
	api := newAPI(t)
	api.register("leaving@example.com")

	if code := api.do(http.MethodDelete, "/api/v1/users/me", dto.DeleteAccountRequest{Password: "wrong-pass1"}, nil); code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a wrong password, got %d", code)
	}
	if code := api.do(http.MethodDelete, "/api/v1/users/me", dto.DeleteAccountRequest{Password: "secret123"}, nil); code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", code)
	}

	api.token = ""
	code := api.do(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Email: "leaving@example.com", Password: "secret123"}, nil)
	if code != http.StatusUnauthorized {
		t.Errorf("expected 401 after deletion, got %d", code)
	}
}

func TestAPI_LogoutAllDevicesReleasesSyncSession(t *testing.T) {
	api := newAPI(t)
	auth := api.register("sessions@example.com")

	if code := api.do(http.MethodPost, "/api/v1/tasks", map[string]interface{}{"title": "Keep me"}, nil); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if code := api.do(http.MethodPost, "/api/v1/sync/run", nil, nil); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var status dto.SyncStatusResponse
	api.do(http.MethodGet, "/api/v1/sync/status", nil, &status)
	if status.LastSyncAt == nil {
		t.Fatalf("expected a finished sync, got %+v", status)
	}

	if code := api.do(http.MethodPost, "/api/v1/auth/logout", dto.LogoutRequest{RefreshToken: auth.RefreshToken, AllDevices: true}, nil); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := api.do(http.MethodPost, "/api/v1/auth/refresh", dto.RefreshTokenRequest{RefreshToken: auth.RefreshToken}, nil); code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a revoked refresh token, got %d", code)
	}

	// the access token is still valid until it expires; it meets a fresh engine
	status = dto.SyncStatusResponse{}
	api.do(http.MethodGet, "/api/v1/sync/status", nil, &status)
	if status.LastSyncAt != nil || status.Pending != 0 {
		t.Errorf("expected a released engine with nothing pending, got %+v", status)
	}
	var tasks []entity.Task
	api.do(http.MethodGet, "/api/v1/tasks", nil, &tasks)
	if len(tasks) != 1 {
		t.Errorf("expected the data kept after logout, got %d tasks", len(tasks))
	}
}

package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/questify/internal/clock"
	"github.com/questify/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dsnUnsafe = regexp.MustCompile(`[^A-Za-z0-9]+`)

func setupTestAPI(t *testing.T) (*API, *gorm.DB, *clock.Fake) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:handler_" + dsnUnsafe.ReplaceAllString(t.Name(), "_") + "?mode=memory&cache=shared"
	gdb, err := db.Open(dsn, logger.Silent)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	fake := clock.NewFake(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	api := NewAPI(gdb, Options{Clock: fake, Location: time.UTC})
	return api, gdb, fake
}

func seedUser(t *testing.T, gdb *gorm.DB) db.User {
	t.Helper()
	user := db.User{DisplayName: "Hero", Email: "hero-" + strconv.FormatInt(time.Now().UnixNano(), 10) + "@example.com", XPMax: 100, Level: 1}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func newJSONContext(method, target string, payload any, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	var body *bytes.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params
	return c, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func userParams(userID uint, extra ...gin.Param) gin.Params {
	return append(gin.Params{{Key: "id", Value: strconv.Itoa(int(userID))}}, extra...)
}

func TestCreateAndToggleTask(t *testing.T) {
	api, gdb, _ := setupTestAPI(t)
	user := seedUser(t, gdb)

	c, w := newJSONContext(http.MethodPost, "/api/users/1/tasks", map[string]any{
		"title":      "Study",
		"type":       "Habit",
		"category":   "INT",
		"difficulty": "Hard",
	}, userParams(user.ID))
	api.CreateTask(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	task := decodeBody(t, w)["task"].(map[string]any)
	taskID := task["id"].(string)

	c, w = newJSONContext(http.MethodPost, "/toggle", nil, userParams(user.ID, gin.Param{Key: "taskId", Value: taskID}))
	api.ToggleTask(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	econ := body["economy"].(map[string]any)
	if econ["gold"].(float64) != 20 || econ["xp"].(float64) != 20 || econ["intelligence"].(float64) != 1 {
		t.Fatalf("unexpected economy: %v", econ)
	}
	delta := body["delta"].(map[string]any)
	if delta["gold_delta"].(float64) != 20 {
		t.Fatalf("unexpected delta: %v", delta)
	}
}

func TestEditingTaskCannotResetCompletion(t *testing.T) {
	api, gdb, _ := setupTestAPI(t)
	user := seedUser(t, gdb)
	taskParam := gin.Param{Key: "taskId", Value: "habit"}

	c, w := newJSONContext(http.MethodPost, "/tasks", map[string]any{
		"id": "habit", "title": "Ship it", "type": "Habit", "category": "DEX", "difficulty": "Epic",
	}, userParams(user.ID))
	api.CreateTask(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	toggle := func() map[string]any {
		t.Helper()
		c, w := newJSONContext(http.MethodPost, "/toggle", nil, userParams(user.ID, taskParam))
		api.ToggleTask(c)
		if w.Code != http.StatusOK {
			t.Fatalf("toggle: expected 200, got %d: %s", w.Code, w.Body.String())
		}
		return decodeBody(t, w)
	}

	earned := toggle()["economy"].(map[string]any)["gold"].(float64)
	if earned == 0 {
		t.Fatal("expected completion to pay gold")
	}

	c, w = newJSONContext(http.MethodPatch, "/tasks/habit", map[string]any{"done": false, "title": "Ship it again"}, userParams(user.ID, taskParam))
	api.PatchTask(c)
	if w.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if task := decodeBody(t, w)["task"].(map[string]any); task["done"] != true || task["title"] != "Ship it again" {
		t.Fatalf("patch must keep completion, got %v", task)
	}

	c, w = newJSONContext(http.MethodPut, "/tasks/habit", map[string]any{
		"title": "Ship it", "type": "Habit", "category": "DEX", "difficulty": "Epic", "done": false,
	}, userParams(user.ID, taskParam))
	api.ReplaceTask(c)
	if w.Code != http.StatusOK {
		t.Fatalf("replace: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if task := decodeBody(t, w)["task"].(map[string]any); task["done"] != true {
		t.Fatalf("replace must keep completion, got %v", task)
	}

	// 再次切换是撤销，金币回到 0
	body := toggle()
	if body["task"].(map[string]any)["done"] != false || body["economy"].(map[string]any)["gold"].(float64) != 0 {
		t.Fatalf("expected revocation after edits, got %v", body)
	}
}

func TestToggleUnknownTaskReturns404(t *testing.T) {
	api, gdb, _ := setupTestAPI(t)
	user := seedUser(t, gdb)

	c, w := newJSONContext(http.MethodPost, "/toggle", nil, userParams(user.ID, gin.Param{Key: "taskId", Value: "nope"}))
	api.ToggleTask(c)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestInvalidUserIDReturns400(t *testing.T) {
	api, _, _ := setupTestAPI(t)

	c, w := newJSONContext(http.MethodGet, "/api/users/abc/tasks", nil, gin.Params{{Key: "id", Value: "abc"}})
	api.ListTasks(c)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestPatchEconomyClampsAndHonorsIdempotencyKey(t *testing.T) {
	api, gdb, _ := setupTestAPI(t)
	user := seedUser(t, gdb)

	for i := 0; i < 2; i++ {
		c, w := newJSONContext(http.MethodPatch, "/economy", map[string]any{"gold_delta": 12}, userParams(user.ID))
		c.Request.Header.Set(idempotencyHeader, "once")
		api.PatchEconomy(c)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		body := decodeBody(t, w)
		if body["economy"].(map[string]any)["gold"].(float64) != 12 {
			t.Fatalf("expected gold 12 on attempt %d, got %v", i, body["economy"])
		}
		if replayed := body["replayed"].(bool); replayed != (i == 1) {
			t.Fatalf("unexpected replayed flag on attempt %d: %v", i, replayed)
		}
	}

	c, w := newJSONContext(http.MethodPatch, "/economy", map[string]any{"gold_delta": -100}, userParams(user.ID))
	api.PatchEconomy(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gold := decodeBody(t, w)["economy"].(map[string]any)["gold"].(float64); gold != 0 {
		t.Fatalf("expected gold clamped to 0, got %v", gold)
	}
}

func TestRolloverMiddlewareAndHandler(t *testing.T) {
	api, gdb, fake := setupTestAPI(t)
	user := seedUser(t, gdb)

	daily := db.Task{ID: "am-workout", UserID: user.ID, Title: "AM workout", Type: "Daily", Category: "STR", Difficulty: "Medium"}
	if err := gdb.Create(&daily).Error; err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}
	if err := gdb.Model(&db.User{}).Where("id = ?", user.ID).Updates(map[string]any{"gold": 20, "last_rollover": "2024-04-30"}).Error; err != nil {
		t.Fatalf("failed to seed economy: %v", err)
	}

	engine := gin.New()
	scoped := engine.Group("/api/users/:id", api.RolloverOnRequest())
	scoped.GET("/economy", api.GetEconomy)
	scoped.PATCH("/rollover", api.RunRollover)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/api/users/"+strconv.Itoa(int(user.ID))+"/rollover", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["outcome"] != "applied" || body["date"] != "2024-05-01" {
		t.Fatalf("unexpected rollover: %v", body)
	}
	if gold := body["economy"].(map[string]any)["gold"].(float64); gold != 15 {
		t.Fatalf("expected gold 15 after penalty, got %v", gold)
	}

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/"+strconv.Itoa(int(user.ID))+"/economy", nil))
	if gold := decodeBody(t, w)["economy"].(map[string]any)["gold"].(float64); gold != 15 {
		t.Fatalf("expected same-day request to skip rollover, got gold %v", gold)
	}

	fake.Advance(24 * time.Hour)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/"+strconv.Itoa(int(user.ID))+"/economy", nil))
	econ := decodeBody(t, w)["economy"].(map[string]any)
	if econ["gold"].(float64) != 10 || econ["last_rollover"] != "2024-05-02" {
		t.Fatalf("expected next-day rollover through middleware, got %v", econ)
	}
}

func TestQuestCompletionAndClaimFlow(t *testing.T) {
	api, gdb, _ := setupTestAPI(t)
	user := seedUser(t, gdb)
	if _, err := api.Quests().EnsureStarterQuest(t.Context()); err != nil {
		t.Fatalf("EnsureStarterQuest: %v", err)
	}

	c, w := newJSONContext(http.MethodPost, "/quests", map[string]any{"quest_id": db.StarterQuestID}, userParams(user.ID))
	api.AssignQuest(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	uqID := decodeBody(t, w)["quest"].(map[string]any)["id"].(float64)
	uqParam := gin.Param{Key: "userQuestId", Value: strconv.Itoa(int(uqID))}

	c, w = newJSONContext(http.MethodPatch, "/quests/x?is_done=true", nil, userParams(user.ID, uqParam))
	api.UpdateUserQuest(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["completed"] != true || body["message"] == "" {
		t.Fatalf("unexpected completion body: %v", body)
	}

	c, w = newJSONContext(http.MethodPatch, "/quests/x?is_done=maybe", nil, userParams(user.ID, uqParam))
	api.UpdateUserQuest(c)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad is_done, got %d", w.Code)
	}

	prParam := gin.Param{Key: "prId", Value: db.StarterQuestID}
	c, w = newJSONContext(http.MethodPost, "/claim", nil, userParams(user.ID, prParam))
	api.ClaimPendingReward(c)
	body = decodeBody(t, w)
	if body["claimed"] != true || body["economy"].(map[string]any)["gold"].(float64) != 5 {
		t.Fatalf("unexpected claim: %v", body)
	}

	c, w = newJSONContext(http.MethodPost, "/claim", nil, userParams(user.ID, prParam))
	api.ClaimPendingReward(c)
	body = decodeBody(t, w)
	if body["claimed"] != false || body["economy"].(map[string]any)["gold"].(float64) != 5 {
		t.Fatalf("expected re-claim no-op: %v", body)
	}
}

func TestBuyItemInsufficientGold(t *testing.T) {
	api, gdb, _ := setupTestAPI(t)
	user := seedUser(t, gdb)

	c, w := newJSONContext(http.MethodPost, "/shop/potion-small", nil, userParams(user.ID, gin.Param{Key: "itemId", Value: "potion-small"}))
	api.BuyItem(c)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}

	c, w = newJSONContext(http.MethodPost, "/shop/unknown", nil, userParams(user.ID, gin.Param{Key: "itemId", Value: "unknown"}))
	api.BuyItem(c)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

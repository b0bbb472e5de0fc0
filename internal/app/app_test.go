package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"forex_edu_backend/internal/config"
	"forex_edu_backend/pkg/database"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const adminPassword = "admin-secret"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// fakeModel 兼容 chat completions 的假上游，流式请求逐词返回
func fakeModel(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Stream bool `json:"stream"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if !req.Stream {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{{"message": map[string]string{"role": "assistant", "content": reply}}},
			})
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, word := range strings.SplitAfter(reply, " ") {
			chunk, _ := json.Marshal(map[string]interface{}{
				"choices": []map[string]interface{}{{"delta": map[string]string{"content": word}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", chunk)
			w.(http.Flusher).Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	model := fakeModel(t, reply)
	cfg := &config.Config{
		Server:   config.ServerConfig{Port: "0", Mode: "test"},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"},
		JWT:      config.JWTConfig{Secret: "integration-secret", ExpireTime: time.Hour},
		AI:       config.AIConfig{BaseURL: model.URL, Model: "test", MaxTokens: 100, TimeoutSeconds: 5},
		Missions: config.MissionsConfig{DailyCount: 3},
		Seed:     config.SeedConfig{AdminUsername: "Victor", AdminEmail: "admin@example.com", AdminPassword: adminPassword},
	}

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.Seed(db, &cfg.Seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	srv := httptest.NewServer(New(cfg, db, nil).Router)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func decode(t *testing.T, raw []byte, v interface{}) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode envelope %s: %v", raw, err)
	}
	if v != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, v); err != nil {
			t.Fatalf("decode data %s: %v", env.Data, err)
		}
	}
	return env
}

func login(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()
	resp, body := do(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": password})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, resp.StatusCode, body)
	}
	var res struct {
		Token string `json:"token"`
	}
	decode(t, body, &res)
	return res.Token
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, "ok")

	resp, body := do(t, srv, http.MethodGet, "/api/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var data struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	decode(t, body, &data)
	if data.Status != "OK" || data.Components["redis"] != "disabled" {
		t.Fatalf("unexpected health: %s", body)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected security headers")
	}
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t, "ok")

	resp, _ := do(t, srv, http.MethodGet, "/api/auth/me", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", resp.StatusCode)
	}
	resp, _ = do(t, srv, http.MethodGet, "/api/auth/me", "garbage", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("bad token: expected 403, got %d", resp.StatusCode)
	}
	resp, _ = do(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "Victor", "password": "nope"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", resp.StatusCode)
	}

	token := login(t, srv, "Victor", adminPassword)
	resp, body := do(t, srv, http.MethodGet, "/api/auth/me", token, nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"role":"admin"`) {
		t.Fatalf("me: %d %s", resp.StatusCode, body)
	}

	resp, _ = do(t, srv, http.MethodPost, "/api/auth/logout", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}
	resp, _ = do(t, srv, http.MethodGet, "/api/auth/me", token, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("revoked token: expected 403, got %d", resp.StatusCode)
	}
}

func TestAdminUserManagement(t *testing.T) {
	srv := newTestServer(t, "ok")
	admin := login(t, srv, "Victor", adminPassword)

	newUser := map[string]string{"username": "ana", "email": "ana@example.com", "password": "parola123", "fullName": "Ana Pop"}
	resp, body := do(t, srv, http.MethodPost, "/api/users", admin, newUser)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.StatusCode, body)
	}
	var created struct {
		ID    uint   `json:"id"`
		Level string `json:"level"`
	}
	decode(t, body, &created)
	if created.Level != "beginner" {
		t.Fatalf("unexpected level %q", created.Level)
	}
	if strings.Contains(string(body), "parola123") || strings.Contains(string(body), `"password"`) {
		t.Fatal("password must never be returned")
	}

	resp, _ = do(t, srv, http.MethodPost, "/api/users", admin, newUser)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", resp.StatusCode)
	}
	resp, _ = do(t, srv, http.MethodPost, "/api/users", admin, map[string]string{"username": "x"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing fields: expected 400, got %d", resp.StatusCode)
	}

	resp, _ = do(t, srv, http.MethodPut, fmt.Sprintf("/api/users/%d", created.ID), admin, map[string]string{"level": "intermediate"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	resp, _ = do(t, srv, http.MethodPut, "/api/users/9999", admin, map[string]string{"fullName": "x"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("update missing: expected 404, got %d", resp.StatusCode)
	}

	learner := login(t, srv, "ana", "parola123")
	resp, _ = do(t, srv, http.MethodGet, "/api/users", learner, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("learner listing users: expected 403, got %d", resp.StatusCode)
	}

	resp, body = do(t, srv, http.MethodGet, "/api/users?search=ana", admin, nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"total":1`) {
		t.Fatalf("list: %d %s", resp.StatusCode, body)
	}

	resp, _ = do(t, srv, http.MethodDelete, fmt.Sprintf("/api/users/%d", created.ID), admin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", resp.StatusCode)
	}
	resp, _ = do(t, srv, http.MethodDelete, fmt.Sprintf("/api/users/%d", created.ID), admin, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("delete again: expected 404, got %d", resp.StatusCode)
	}
}

func TestChatStreamsAndRecordsActivity(t *testing.T) {
	srv := newTestServer(t, "Un pip este cea mai mică variație.")
	admin := login(t, srv, "Victor", adminPassword)

	resp, _ := do(t, srv, http.MethodPost, "/api/users", admin, map[string]string{"username": "dan", "email": "dan@example.com", "password": "parola123"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create learner: %d", resp.StatusCode)
	}
	learner := login(t, srv, "dan", "parola123")

	resp, body := do(t, srv, http.MethodPost, "/api/ai/chat", learner, map[string]string{"message": "Ce este un pip?"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat: %d %s", resp.StatusCode, body)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		t.Fatalf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	if string(body) != "Un pip este cea mai mică variație." {
		t.Fatalf("unexpected reply %q", body)
	}

	resp, body = do(t, srv, http.MethodPost, "/api/ai/chat", learner, map[string]string{"message": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty message: expected 400, got %d", resp.StatusCode)
	}

	resp, body = do(t, srv, http.MethodGet, "/api/ai/chat/history", learner, nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "Ce este un pip?") {
		t.Fatalf("history: %d %s", resp.StatusCode, body)
	}

	resp, _ = do(t, srv, http.MethodPost, "/api/ai/quiz/evaluate", learner, map[string]interface{}{
		"questions": []map[string]interface{}{{"id": 1, "question": "Q", "correct": "A"}},
		"answers":   []string{"A", "B"},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("mismatched answers: expected 400, got %d", resp.StatusCode)
	}

	resp, body = do(t, srv, http.MethodGet, "/api/activity/logs?actionType=AI_CHAT", admin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activity logs: %d %s", resp.StatusCode, body)
	}
	var page struct {
		Logs []struct {
			Username    string          `json:"username"`
			RequestData json.RawMessage `json:"requestData"`
		} `json:"logs"`
	}
	decode(t, body, &page)
	if len(page.Logs) != 2 || page.Logs[0].Username != "dan" {
		t.Fatalf("unexpected logs: %s", body)
	}

	resp, body = do(t, srv, http.MethodGet, "/api/activity/logs?actionType=USER_CREATE", admin, nil)
	if resp.StatusCode != http.StatusOK || strings.Contains(string(body), "parola123") || !strings.Contains(string(body), "[HIDDEN]") {
		t.Fatalf("passwords must be hidden in activity logs: %s", body)
	}
}

func TestLearnerSkillsAndMissions(t *testing.T) {
	srv := newTestServer(t, "ok")
	admin := login(t, srv, "Victor", adminPassword)
	do(t, srv, http.MethodPost, "/api/users", admin, map[string]string{"username": "ilie", "email": "ilie@example.com", "password": "parola123"})
	learner := login(t, srv, "ilie", "parola123")

	resp, body := do(t, srv, http.MethodGet, "/api/skills", learner, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("skills: %d %s", resp.StatusCode, body)
	}
	var skills struct {
		Skills []struct {
			Name  string `json:"name"`
			Level int    `json:"level"`
		} `json:"skills"`
	}
	decode(t, body, &skills)
	if len(skills.Skills) != 7 || skills.Skills[0].Level != 1 {
		t.Fatalf("expected 7 level-1 skills, got %+v", skills.Skills)
	}

	resp, body = do(t, srv, http.MethodGet, "/api/skills/missions", learner, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("missions: %d %s", resp.StatusCode, body)
	}
	var missions struct {
		Missions []struct {
			ID uint `json:"id"`
		} `json:"missions"`
	}
	decode(t, body, &missions)
	if len(missions.Missions) != 3 {
		t.Fatalf("expected 3 daily missions, got %d", len(missions.Missions))
	}

	resp, _ = do(t, srv, http.MethodPost, fmt.Sprintf("/api/skills/missions/%d/claim", missions.Missions[0].ID), learner, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("claim unfinished mission: expected 400, got %d", resp.StatusCode)
	}
	resp, _ = do(t, srv, http.MethodPost, "/api/skills/missions/9999/claim", learner, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("claim unknown mission: expected 404, got %d", resp.StatusCode)
	}

	resp, body = do(t, srv, http.MethodPut, "/api/ai/level", learner, map[string]string{"level": "expert"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid level: expected 400, got %d", resp.StatusCode)
	}
	resp, body = do(t, srv, http.MethodPut, "/api/ai/level", learner, map[string]string{"level": "advanced"})
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"newLevel":"advanced"`) {
		t.Fatalf("update level: %d %s", resp.StatusCode, body)
	}
}

package service

import (
	"encoding/json"
	"forex_edu_backend/internal/model"
	"forex_edu_backend/internal/repository"
	"net/http"
	"testing"
	"time"
)

func TestActionType(t *testing.T) {
	tests := []struct {
		method, path, want string
	}{
		{http.MethodPost, "/api/auth/login", "LOGIN"},
		{http.MethodPost, "/api/auth/logout", "LOGOUT"},
		{http.MethodPost, "/api/ai/chat", "AI_CHAT"},
		{http.MethodGet, "/api/ai/quiz", "QUIZ_GENERATE"},
		{http.MethodPost, "/api/ai/quiz/evaluate", "QUIZ_SUBMIT"},
		{http.MethodGet, "/api/ai/progress", "PROGRESS_VIEW"},
		{http.MethodGet, "/api/ai/chat/history", "CHAT_HISTORY_VIEW"},
		{http.MethodPut, "/api/ai/level", "LEVEL_UPDATE"},
		{http.MethodGet, "/api/users", "USERS_VIEW"},
		{http.MethodPost, "/api/users", "USER_CREATE"},
		{http.MethodPut, "/api/users/3", "USER_UPDATE"},
		{http.MethodDelete, "/api/users/3", "USER_DELETE"},
		{http.MethodGet, "/api/skills/overview", "GET_OVERVIEW"},
		{http.MethodPost, "/api/skills/missions/4/claim", "POST_CLAIM"},
		{http.MethodGet, "/", "GET_UNKNOWN"},
	}
	for _, tt := range tests {
		if got := ActionType(tt.method, tt.path); got != tt.want {
			t.Errorf("ActionType(%s %s) = %s, want %s", tt.method, tt.path, got, tt.want)
		}
	}
}

func TestShouldLogRequest(t *testing.T) {
	if ShouldLogRequest(http.MethodOptions, "/api/ai/chat") {
		t.Fatal("preflight requests must be skipped")
	}
	for _, p := range []string{"/api/health", "/api/auth/me", "/favicon.ico"} {
		if ShouldLogRequest(http.MethodGet, p) {
			t.Fatalf("%s must be skipped", p)
		}
	}
	if !ShouldLogRequest(http.MethodGet, "/api/skills") {
		t.Fatal("regular requests must be logged")
	}
}

func TestSanitizeBody(t *testing.T) {
	body := map[string]interface{}{
		"username": "ana",
		"password": "secret123",
		"token":    "",
		"nested":   map[string]interface{}{"password": "kept"},
	}
	out := SanitizeBody(body)

	if out["password"] != "[HIDDEN]" {
		t.Fatalf("password not hidden: %v", out["password"])
	}
	if out["token"] != "" {
		t.Fatalf("empty values stay empty, got %v", out["token"])
	}
	if out["username"] != "ana" {
		t.Fatalf("unexpected username %v", out["username"])
	}
	if nested := out["nested"].(map[string]interface{}); nested["password"] != "kept" {
		t.Fatalf("only top-level fields are sanitized")
	}
	if body["password"] != "secret123" {
		t.Fatal("input must not be mutated")
	}
}

func TestRequestData(t *testing.T) {
	if RequestData(nil, nil, nil) != nil {
		t.Fatal("expected nil for empty request")
	}

	raw := RequestData(
		map[string][]string{"limit": {"10"}, "tag": {"a", "b"}},
		map[string]interface{}{"password": "x"},
		map[string]string{"id": "7"},
	)
	var data map[string]map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if data["query"]["limit"] != "10" {
		t.Fatalf("single query values are flattened: %v", data["query"])
	}
	if tags, ok := data["query"]["tag"].([]interface{}); !ok || len(tags) != 2 {
		t.Fatalf("multi-value query kept as list: %v", data["query"]["tag"])
	}
	if data["body"]["password"] != "[HIDDEN]" || data["params"]["id"] != "7" {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestActivityListAndStats(t *testing.T) {
	db := newTestDB(t)
	ana := createUser(t, db, "ana", model.Beginner)
	dan := createUser(t, db, "dan", model.Beginner)

	svc := NewActivityService(repository.NewActivityRepository(db), repository.NewUserRepository(db))
	now := time.Now()
	svc.Now = func() time.Time { return now }

	record := func(userID uint, action string, duration int64, at time.Time) {
		svc.Record(&model.ActivityLog{
			UserID:         userID,
			RequestID:      model.GenerateUUID(),
			ActionType:     action,
			Endpoint:       "/api/test",
			Method:         http.MethodGet,
			ResponseStatus: http.StatusOK,
			DurationMs:     duration,
			CreatedAt:      at,
		})
	}
	record(ana.ID, "AI_CHAT", 10, now.Add(-time.Hour))
	record(ana.ID, "AI_CHAT", 21, now.Add(-2*time.Hour))
	record(ana.ID, "QUIZ_GENERATE", 5, now.Add(-30*time.Hour))
	record(dan.ID, "AI_CHAT", 30, now.Add(-time.Hour))
	record(dan.ID, "LOGIN", 1, now.AddDate(0, 0, -30))
	svc.LogCustom(ana.ID, ActionLoginOK, map[string]interface{}{"username": "ana"})

	t.Run("pagination", func(t *testing.T) {
		page, err := svc.ListLogs(repository.ActivityFilter{Limit: 2})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if page.Pagination.Total != 6 || len(page.Logs) != 2 || !page.Pagination.HasMore {
			t.Fatalf("unexpected page: %+v", page.Pagination)
		}

		page, err = svc.ListLogs(repository.ActivityFilter{UserID: ana.ID, ActionType: "AI_CHAT"})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if page.Pagination.Total != 2 || page.Pagination.Limit != 50 || page.Pagination.HasMore {
			t.Fatalf("unexpected filtered page: %+v", page.Pagination)
		}
		for _, l := range page.Logs {
			if l.Username != "ana" || l.ActionType != "AI_CHAT" {
				t.Fatalf("unexpected row: %+v", l)
			}
		}
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := svc.Stats(7, 0)
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		counts := map[string]int64{}
		for _, a := range stats.ActionStats {
			counts[a.ActionType] = a.Count
			if a.ActionType == "AI_CHAT" && a.AvgDuration != 20 {
				t.Fatalf("expected avg 20 for AI_CHAT, got %d", a.AvgDuration)
			}
		}
		if counts["AI_CHAT"] != 3 || counts["QUIZ_GENERATE"] != 1 || counts["LOGIN"] != 0 {
			t.Fatalf("unexpected action counts: %v", counts)
		}

		var hourly int64
		for i, h := range stats.HourlyActivity {
			hourly += h.Count
			if i > 0 && h.Hour <= stats.HourlyActivity[i-1].Hour {
				t.Fatalf("hours must be ascending: %+v", stats.HourlyActivity)
			}
		}
		if hourly != 4 {
			t.Fatalf("expected 4 entries in the last 24h, got %d", hourly)
		}

		if len(stats.TopUsers) != 2 || stats.TopUsers[0].Username != "ana" || stats.TopUsers[0].ActivityCount != 4 {
			t.Fatalf("unexpected top users: %+v", stats.TopUsers)
		}
		if stats.TopUsers[0].LastActivity == nil {
			t.Fatal("expected last activity for top user")
		}
	})

	t.Run("action types", func(t *testing.T) {
		types, err := svc.ActionTypes()
		if err != nil {
			t.Fatalf("action types: %v", err)
		}
		if len(types) != 4 {
			t.Fatalf("unexpected types: %v", types)
		}
	})
}

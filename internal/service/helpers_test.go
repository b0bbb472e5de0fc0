package service

import (
	"encoding/json"
	"fmt"
	"forex_edu_backend/internal/config"
	"forex_edu_backend/internal/model"
	"forex_edu_backend/internal/repository"
	"forex_edu_backend/pkg/database"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitDB(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.Seed(db, &config.SeedConfig{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string, level model.Level) *model.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &model.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hashed),
		FullName: strings.ToUpper(username),
		Role:     model.Learner,
		IsActive: true,
		Level:    level,
	}
	if err := repository.NewUserRepository(db).Create(user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// newFakeAI 启动兼容 chat completions 协议的假服务；流式请求按空格切分回复
func newFakeAI(t *testing.T, reply func(req ChatCompletionRequest) string) *AIService {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		content := reply(req)

		if !req.Stream {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]string{"role": "assistant", "content": content}},
				},
			})
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for i, word := range strings.SplitAfter(content, " ") {
			chunk, _ := json.Marshal(map[string]interface{}{
				"id": fmt.Sprintf("chunk-%d", i),
				"choices": []map[string]interface{}{
					{"delta": map[string]string{"content": word}},
				},
			})
			fmt.Fprintf(w, "data: %s\n\n", chunk)
			if flusher != nil {
				flusher.Flush()
			}
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)

	return NewAIService(config.AIConfig{
		BaseURL:        srv.URL,
		APIKey:         "test-key",
		Model:          "test-model",
		Temperature:    0.7,
		MaxTokens:      500,
		TimeoutSeconds: 5,
	})
}

func progressEntries(pcts ...int) []model.LearningProgress {
	entries := make([]model.LearningProgress, 0, len(pcts))
	for _, p := range pcts {
		entries = append(entries, model.LearningProgress{QuizScore: p, TotalQuestions: 100})
	}
	return entries
}

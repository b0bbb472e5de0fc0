package service

import (
	"context"
	"errors"
	"forex_edu_backend/internal/config"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{"plain object", `{"a":1}`, `{"a":1}`, false},
		{"wrapped in prose", "Sigur! {\"a\":{\"b\":2}} Succes!", `{"a":{"b":2}}`, false},
		{"markdown fence", "```json\n{\"x\":true}\n```", `{"x":true}`, false},
		{"no braces", "fără json", "", true},
		{"reversed braces", "} {", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChatStream(t *testing.T) {
	ai := newFakeAI(t, func(req ChatCompletionRequest) string {
		if !req.Stream {
			t.Errorf("expected a streaming request")
		}
		return "Un pip este cea mai mică variație."
	})

	chunks, errs := ai.ChatStream(context.Background(), []AIChatMessage{{Role: "user", Content: "Ce este un pip?"}})
	var sb strings.Builder
	for chunk := range chunks {
		sb.WriteString(chunk)
	}
	if err := <-errs; err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if sb.String() != "Un pip este cea mai mică variație." {
		t.Fatalf("unexpected reply %q", sb.String())
	}
}

func TestAIServiceUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ai := NewAIService(config.AIConfig{BaseURL: srv.URL, Model: "m", TimeoutSeconds: 5})

	_, err := ai.Complete(context.Background(), "feedback", nil, CompletionOptions{})
	var aiErr *AIError
	if !errors.As(err, &aiErr) || aiErr.Kind != AIErrUnavailable {
		t.Fatalf("expected unavailable error, got %v", err)
	}

	chunks, errs := ai.ChatStream(context.Background(), nil)
	for range chunks {
		t.Fatalf("no chunks expected")
	}
	err = <-errs
	if !errors.As(err, &aiErr) || aiErr.Kind != AIErrUnavailable {
		t.Fatalf("expected unavailable stream error, got %v", err)
	}
}

func TestGenerateJSONMalformed(t *testing.T) {
	ai := newFakeAI(t, func(req ChatCompletionRequest) string { return "{nu este json}" })

	var v map[string]interface{}
	err := ai.GenerateJSON(context.Background(), "quiz", nil, CompletionOptions{}, &v)
	var aiErr *AIError
	if !errors.As(err, &aiErr) || aiErr.Kind != AIErrMalformed {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestUpdateConfigSwapsModel(t *testing.T) {
	var seen string
	ai := newFakeAI(t, func(req ChatCompletionRequest) string {
		seen = req.Model
		return "ok"
	})

	cfg, _ := ai.snapshot()
	cfg.Model = "reloaded-model"
	ai.UpdateConfig(cfg)

	if _, err := ai.Complete(context.Background(), "feedback", nil, CompletionOptions{}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if seen != "reloaded-model" {
		t.Fatalf("expected reloaded model, got %q", seen)
	}
}

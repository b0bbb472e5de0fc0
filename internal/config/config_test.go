package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadConfig(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: "8080"
database:
  driver: sqlite
  path: ":memory:"
jwt:
  secret: file-secret
  expire_hours: 2
ai:
  model: file-model
missions:
  daily_count: 4
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.AI.Model != "file-model" || cfg.Missions.DailyCount != 4 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.JWT.ExpireTime != 2*time.Hour {
		t.Fatalf("expected 2h expiry, got %v", cfg.JWT.ExpireTime)
	}
	if cfg.AI.BaseURL != "https://api.openai.com/v1" || cfg.RateLimit.MaxRequests != 600 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.ConfigDir != dir {
		t.Fatalf("expected config dir %q, got %q", dir, cfg.ConfigDir)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := writeConfig(t, "jwt:\n  secret: file-secret\n")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("AI_MODEL", "env-model")
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_PATH", ":memory:")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWT.Secret != "env-secret" || cfg.AI.Model != "env-model" || cfg.Server.Port != "9000" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadConfigRejectsWeakSecrets(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "server:\n  port: \"1\"\n")); err == nil {
		t.Fatal("expected error for missing jwt secret")
	}

	dir := writeConfig(t, "server:\n  mode: release\njwt:\n  secret: short\n")
	if _, err := LoadConfig(dir); err == nil {
		t.Fatal("expected error for short release secret")
	}
}

func TestLoadConfigWithoutFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "only-env")
	t.Setenv("DATABASE_PATH", ":memory:")
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "5000" || cfg.Missions.DailyCount != 3 || cfg.IsRelease() {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE", "IDENTITY_MODE", "GAME_ID_STYLE", "DEV_MODE", "STORE_RETRY_MAX", "REDIS_TTL"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", c.Port)
	}
	if c.Store != "memory" {
		t.Fatalf("expected memory store, got %s", c.Store)
	}
	if c.IdentityMode != "id" {
		t.Fatalf("expected id identity mode, got %s", c.IdentityMode)
	}
	if c.GameIDStyle != "uuid" {
		t.Fatalf("expected uuid ids, got %s", c.GameIDStyle)
	}
	if c.DevMode {
		t.Fatal("dev mode should be off by default")
	}
	if c.RetryMax != 8 {
		t.Fatalf("expected 8 retries, got %d", c.RetryMax)
	}
	if c.RedisTTL != 0 {
		t.Fatalf("expected no ttl, got %s", c.RedisTTL)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("STORE", "SQLite")
	t.Setenv("IDENTITY_MODE", "Name")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("STORE_RETRY_MAX", "3")
	t.Setenv("REDIS_TTL", "48h")

	c := FromEnv()
	if c.Port != "3000" {
		t.Fatalf("expected port 3000, got %s", c.Port)
	}
	if c.Store != "sqlite" {
		t.Fatalf("expected store to be lowercased, got %s", c.Store)
	}
	if c.IdentityMode != "name" {
		t.Fatalf("expected name identity mode, got %s", c.IdentityMode)
	}
	if !c.DevMode {
		t.Fatal("expected dev mode on")
	}
	if c.RetryMax != 3 {
		t.Fatalf("expected 3 retries, got %d", c.RetryMax)
	}
	if c.RedisTTL != 48*time.Hour {
		t.Fatalf("expected 48h ttl, got %s", c.RedisTTL)
	}
}

func TestFromEnvInvalidValuesFallBack(t *testing.T) {
	t.Setenv("DEV_MODE", "sometimes")
	t.Setenv("STORE_RETRY_MAX", "many")
	t.Setenv("STORE_RETRY_MAX_ELAPSED", "soon")

	c := FromEnv()
	if c.DevMode {
		t.Fatal("invalid bool should fall back to false")
	}
	if c.RetryMax != 8 {
		t.Fatalf("invalid int should fall back to 8, got %d", c.RetryMax)
	}
	if c.RetryMaxElapsed != 2*time.Second {
		t.Fatalf("invalid duration should fall back to 2s, got %s", c.RetryMaxElapsed)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GAME_ID_STYLE=code\n"), 0644); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	// godotenv does not override variables that are already set
	os.Unsetenv("GAME_ID_STYLE")
	t.Cleanup(func() { os.Unsetenv("GAME_ID_STYLE") })

	c := Load()
	if c.GameIDStyle != "code" {
		t.Fatalf("expected GAME_ID_STYLE from .env, got %s", c.GameIDStyle)
	}
}

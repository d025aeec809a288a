package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `logger:
  enabled: true
  level: debug
  format: text
server:
  port: 3636
database:
  path: %s
resolver:
  api_url: https://api.music.example.com/v1
  requests_per_second: 5
services:
  deezer:
    arl: https://arl.example.com/current
  spotify:
    sp_dc: cookie-value
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")
	path := writeConfig(t, strings.ReplaceAll(validYAML, "%s", dbPath))

	manager, err := Load(path)
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	cfg := manager.Get()
	if cfg.Logger.Level != "debug" {
		t.Errorf("level = %q", cfg.Logger.Level)
	}
	if cfg.Services.Deezer.ARL != "https://arl.example.com/current" {
		t.Errorf("arl = %q", cfg.Services.Deezer.ARL)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, "resolver:\n  api_url: not-a-url\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation failure")
	}
}

func TestLoadCreatesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	manager, err := Load(path)
	if err != nil {
		t.Fatalf("expected default creation, got %v", err)
	}
	if manager.Get().Server.Port == 0 {
		t.Error("default port should be set")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config file should exist: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")
	path := writeConfig(t, strings.ReplaceAll(validYAML, "%s", dbPath))

	t.Setenv("STREAMVAULT_ARL", "env-arl-value")
	t.Setenv("STREAMVAULT_SP_DC", "env-cookie")

	manager, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg := manager.Get()
	if cfg.Services.Deezer.ARL != "env-arl-value" {
		t.Errorf("arl = %q, want env override", cfg.Services.Deezer.ARL)
	}
	if cfg.Services.Spotify.SpDC != "env-cookie" {
		t.Errorf("sp_dc = %q, want env override", cfg.Services.Spotify.SpDC)
	}
}

func TestRedactedOutputHidesSecrets(t *testing.T) {
	manager := NewManager(&Config{
		Resolver: Resolver{APIURL: "https://api.example.com", APIKey: "key-123"},
		Services: Services{
			Deezer:  Deezer{ARL: "arl-secret"},
			Spotify: Spotify{SpDC: "dc-secret", ClientSecret: "cs-secret"},
		},
	})

	out := manager.GetJSON()
	for _, secret := range []string{"key-123", "arl-secret", "dc-secret", "cs-secret"} {
		if strings.Contains(out, secret) {
			t.Errorf("redacted JSON leaks %q", secret)
		}
	}
	if !strings.Contains(out, "<redacted>") {
		t.Error("expected redaction markers in output")
	}
}

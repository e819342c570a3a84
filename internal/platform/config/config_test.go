package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Addr() != ":8080" {
		t.Errorf("unexpected addr %s", cfg.Server.Addr())
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.MaxBodyBytes != 2<<20 {
		t.Errorf("unexpected max body bytes: %d", cfg.Server.MaxBodyBytes)
	}
	if cfg.I18n.DefaultLanguage != "zh-CN" || cfg.I18n.FallbackLanguage != "en-US" {
		t.Errorf("unexpected languages: %+v", cfg.I18n)
	}
	if !reflect.DeepEqual(cfg.I18n.Languages, []string{"zh-CN", "ja-JP", "en-US"}) {
		t.Errorf("unexpected supported languages: %v", cfg.I18n.Languages)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected info log level, got %s", cfg.Log.Level)
	}
	if cfg.Dev {
		t.Errorf("expected dev mode off")
	}
}

func TestLoadOverrides(t *testing.T) {
	env := map[string]string{
		"PORT":                        "9000",
		"PAGEMAKER_PORT":              "9100",
		"PAGEMAKER_READ_TIMEOUT":      "5s",
		"PAGEMAKER_MAX_BODY_BYTES":    "1024",
		"PAGEMAKER_LANGUAGES":         "ja-JP, en-US",
		"PAGEMAKER_DEFAULT_LANGUAGE":  "ja-JP",
		"PAGEMAKER_FALLBACK_LANGUAGE": "en-US",
		"LOG_LEVEL":                   "DEBUG",
		"PAGEMAKER_DEV":               "yes",
	}
	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "9100" {
		t.Errorf("expected PAGEMAKER_PORT to win, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("unexpected read timeout %s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.MaxBodyBytes != 1024 {
		t.Errorf("unexpected max body %d", cfg.Server.MaxBodyBytes)
	}
	if !reflect.DeepEqual(cfg.I18n.Languages, []string{"ja-JP", "en-US"}) {
		t.Errorf("unexpected languages %v", cfg.I18n.Languages)
	}
	if cfg.Log.Level != "debug" || !cfg.Dev {
		t.Errorf("unexpected log/dev settings: %+v dev=%v", cfg.Log, cfg.Dev)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# local overrides\nexport PAGEMAKER_PORT=\"7070\"\nPAGEMAKER_DEFAULT_LANGUAGE='en-US'\ninvalid line\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}

	cfg, err := Load(WithEnvFile(path), WithoutSystemEnv(), WithEnvMap(map[string]string{"PAGEMAKER_DEFAULT_LANGUAGE": "ja-JP"}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("expected port from .env, got %s", cfg.Server.Port)
	}
	if cfg.I18n.DefaultLanguage != "ja-JP" {
		t.Errorf("expected env map to override .env, got %s", cfg.I18n.DefaultLanguage)
	}
}

func TestLoadValidation(t *testing.T) {
	env := map[string]string{
		"PAGEMAKER_PORT":             "http",
		"PAGEMAKER_MAX_BODY_BYTES":   "0",
		"PAGEMAKER_DEFAULT_LANGUAGE": "fr-FR",
	}
	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := []string{"Server.Port", "Server.MaxBodyBytes", "I18n.DefaultLanguage"}
	if !reflect.DeepEqual(vErr.Fields(), want) {
		t.Fatalf("expected fields %v, got %v", want, vErr.Fields())
	}
}

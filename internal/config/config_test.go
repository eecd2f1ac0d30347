package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"API_URL", "HTTP_PORT", "LOG_LEVEL", "DATABASE_URL", "ALLOWED_ORIGINS",
		"SESSION_IDLE_MINUTES", "ACTIVITY_RETENTION_DAYS", "MAX_UPLOAD_MB", "REPLACE_PLACEHOLDER_ON_ERROR", "INBOX_DIR"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	LoadConfig()

	if AppConfig.APIURL != "http://localhost:8000" {
		t.Errorf("APIURL = %q, want fallback", AppConfig.APIURL)
	}
	if AppConfig.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want 8080", AppConfig.HTTPPort)
	}
	if AppConfig.DatabaseURL != "pdf_chat.db" {
		t.Errorf("DatabaseURL = %q", AppConfig.DatabaseURL)
	}
	if AppConfig.SessionIdleTTL != 30*time.Minute {
		t.Errorf("SessionIdleTTL = %v, want 30m", AppConfig.SessionIdleTTL)
	}
	if AppConfig.MaxUploadBytes != 32<<20 {
		t.Errorf("MaxUploadBytes = %d, want 32MB", AppConfig.MaxUploadBytes)
	}
	if AppConfig.ReplacePlaceholderOnError {
		t.Error("ReplacePlaceholderOnError should default to false")
	}
	if len(AppConfig.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v, want 2 defaults", AppConfig.AllowedOrigins)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("API_URL", "http://qa.internal:9000/")
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("SESSION_IDLE_MINUTES", "5")
	t.Setenv("ACTIVITY_RETENTION_DAYS", "1")
	t.Setenv("MAX_UPLOAD_MB", "2")
	t.Setenv("REPLACE_PLACEHOLDER_ON_ERROR", "true")
	t.Setenv("INBOX_DIR", "/tmp/inbox")

	LoadConfig()

	if AppConfig.APIURL != "http://qa.internal:9000" {
		t.Errorf("APIURL = %q, trailing slash should be trimmed", AppConfig.APIURL)
	}
	if AppConfig.HTTPPort != "9999" {
		t.Errorf("HTTPPort = %q", AppConfig.HTTPPort)
	}
	if AppConfig.LogLevel != "DEBUG" {
		t.Errorf("LogLevel = %q, want upper-cased", AppConfig.LogLevel)
	}
	if len(AppConfig.AllowedOrigins) != 2 || AppConfig.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", AppConfig.AllowedOrigins)
	}
	if AppConfig.SessionIdleTTL != 5*time.Minute {
		t.Errorf("SessionIdleTTL = %v", AppConfig.SessionIdleTTL)
	}
	if AppConfig.ActivityRetention != 24*time.Hour {
		t.Errorf("ActivityRetention = %v", AppConfig.ActivityRetention)
	}
	if AppConfig.MaxUploadBytes != 2<<20 {
		t.Errorf("MaxUploadBytes = %d", AppConfig.MaxUploadBytes)
	}
	if !AppConfig.ReplacePlaceholderOnError {
		t.Error("ReplacePlaceholderOnError should be true")
	}
	if AppConfig.InboxDir != "/tmp/inbox" {
		t.Errorf("InboxDir = %q", AppConfig.InboxDir)
	}
}

func TestGetEnvAsInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	if got := getEnvAsInt("SOME_INT", 7); got != 7 {
		t.Errorf("getEnvAsInt = %d, want 7", got)
	}
	t.Setenv("SOME_INT", "-3")
	if got := getEnvAsInt("SOME_INT", 7); got != 7 {
		t.Errorf("getEnvAsInt = %d, want 7 for negative", got)
	}
}

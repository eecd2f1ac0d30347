package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIURL                    string
	HTTPPort                  string
	LogLevel                  string
	DatabaseURL               string
	AllowedOrigins            []string
	SessionIdleTTL            time.Duration
	ActivityRetention         time.Duration
	MaxUploadBytes            int64
	ReplacePlaceholderOnError bool
	InboxDir                  string
}

var AppConfig Config

const defaultAPIURL = "http://localhost:8000"

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		APIURL:                    strings.TrimRight(getEnv("API_URL", defaultAPIURL), "/"),
		HTTPPort:                  getEnv("HTTP_PORT", "8080"),
		LogLevel:                  strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		DatabaseURL:               getEnv("DATABASE_URL", "pdf_chat.db"),
		AllowedOrigins:            getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),
		SessionIdleTTL:            time.Duration(getEnvAsInt("SESSION_IDLE_MINUTES", 30)) * time.Minute,
		ActivityRetention:         time.Duration(getEnvAsInt("ACTIVITY_RETENTION_DAYS", 7)) * 24 * time.Hour,
		MaxUploadBytes:            int64(getEnvAsInt("MAX_UPLOAD_MB", 32)) << 20,
		ReplacePlaceholderOnError: getEnvAsBool("REPLACE_PLACEHOLDER_ON_ERROR", false),
		InboxDir:                  getEnv("INBOX_DIR", ""),
	}

	if AppConfig.APIURL == "" {
		log.Printf("API_URL is empty, falling back to %s", defaultAPIURL)
		AppConfig.APIURL = defaultAPIURL
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		log.Printf("WARN: %s=%q is not a positive int, using default %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("WARN: %s=%q is not a bool, using default %t", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated value, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if strings.TrimSpace(valueStr) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

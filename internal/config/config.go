package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	Env         string
	CorsOrigins []string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Calendar used for learning-time buckets and the retention sweep
	Timezone string
	Location *time.Location

	// Learning time
	RetentionDays      int
	CleanupHour        int
	CountIdleIntervals bool

	// Storage
	StorageType      string
	StoragePath      string
	StoragePublicURL string
	S3Bucket         string
	S3Region         string
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
	S3PublicURL      string

	// SMTP
	SMTPHost    string
	SMTPPort    string
	SMTPUser    string
	SMTPPass    string
	SMTPFrom    string
	MailWorkers int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		Env:                getEnvOrDefault("ENV", "development"),
		CorsOrigins:        parseCSV(getEnvOrDefault("CORS_ORIGINS", "http://localhost:5173")),
		DatabaseURL:        mustGetEnv("DATABASE_URL"),
		RedisURL:           mustGetEnv("REDIS_URL"),
		JWTSecret:          mustGetEnv("JWT_SECRET"),
		Timezone:           getEnvOrDefault("APP_TIMEZONE", "Asia/Seoul"),
		RetentionDays:      getEnvAsIntOrDefault("LEARNING_RETENTION_DAYS", 14),
		CleanupHour:        getEnvAsIntOrDefault("LEARNING_CLEANUP_HOUR", 0),
		CountIdleIntervals: getEnvAsBoolOrDefault("LEARNING_COUNT_IDLE", true),
		StorageType:        getEnvOrDefault("STORAGE_TYPE", "local"),
		StoragePath:        getEnvOrDefault("STORAGE_PATH", "./uploads"),
		StoragePublicURL:   getEnvOrDefault("STORAGE_PUBLIC_URL", "/uploads"),
		S3Bucket:           getEnvOrDefault("S3_BUCKET", ""),
		S3Region:           getEnvOrDefault("S3_REGION", "ap-northeast-2"),
		S3Endpoint:         getEnvOrDefault("S3_ENDPOINT", ""),
		S3AccessKey:        getEnvOrDefault("S3_ACCESS_KEY", ""),
		S3SecretKey:        getEnvOrDefault("S3_SECRET_KEY", ""),
		S3PublicURL:        getEnvOrDefault("S3_PUBLIC_URL", ""),
		SMTPHost:           getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:           getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:           getEnvOrDefault("SMTP_USER", ""),
		SMTPPass:           getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom:           getEnvOrDefault("SMTP_FROM", "noreply@lms.local"),
		MailWorkers:        getEnvAsIntOrDefault("MAIL_WORKERS", 2),
		FrontendURL:        getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		panic(fmt.Sprintf("invalid APP_TIMEZONE %q: %v", cfg.Timezone, err))
	}
	cfg.Location = loc

	if cfg.RetentionDays < 1 {
		cfg.RetentionDays = 14
	}
	if cfg.CleanupHour < 0 || cfg.CleanupHour > 23 {
		cfg.CleanupHour = 0
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if v := strings.TrimSpace(part); v != "" {
			items = append(items, v)
		}
	}
	return items
}

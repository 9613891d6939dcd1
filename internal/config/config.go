package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	DatabaseURL       string
	JWTSecret         string
	JWTIssuer         string
	AccessTTLSeconds  int64
	RefreshTTLSeconds int64
	MediaStoragePath  string
	CorsOrigins       []string

	// Per-resource response cache TTLs.
	CourseCacheTTL  time.Duration
	CatalogCacheTTL time.Duration
	ContentCacheTTL time.Duration

	// External skill-analysis provider.
	AIBaseURL        string
	AIAPIKey         string
	AIModel          string
	AITimeoutSeconds int

	MetricsDiskPath      string
	MetricsSampleSeconds int
}

func Load() Config {
	return Config{
		DatabaseURL:          mustEnv("DATABASE_URL"),
		JWTSecret:            mustEnv("JWT_SECRET"),
		JWTIssuer:            envOr("JWT_ISSUER", "thaimooc"),
		AccessTTLSeconds:     int64(envOrInt("ACCESS_TTL_SECONDS", 14400)),
		RefreshTTLSeconds:    int64(envOrInt("REFRESH_TTL_SECONDS", 1209600)),
		MediaStoragePath:     envOr("MEDIA_STORAGE_PATH", "storage/media"),
		CorsOrigins:          parseCSV(envOr("CORS_ORIGINS", "")),
		CourseCacheTTL:       time.Duration(envOrInt("COURSE_CACHE_TTL_SECONDS", 180)) * time.Second,
		CatalogCacheTTL:      time.Duration(envOrInt("CATALOG_CACHE_TTL_SECONDS", 300)) * time.Second,
		ContentCacheTTL:      time.Duration(envOrInt("CONTENT_CACHE_TTL_SECONDS", 300)) * time.Second,
		AIBaseURL:            envOr("AI_BASE_URL", "https://api.openai.com"),
		AIAPIKey:             envOr("AI_API_KEY", ""),
		AIModel:              envOr("AI_MODEL", "gpt-4o-mini"),
		AITimeoutSeconds:     envOrInt("AI_TIMEOUT_SECONDS", 30),
		MetricsDiskPath:      envOr("METRICS_DISK_PATH", "storage/media"),
		MetricsSampleSeconds: envOrInt("METRICS_SAMPLE_INTERVAL", 5),
	}
}

func mustEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		panic("missing env var: " + key)
	}
	return value
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}

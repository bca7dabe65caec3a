package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings backends.
const (
	SettingsBackendFile  = "file"
	SettingsBackendRedis = "redis"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string
	// WorkspaceUserID owns history and jobs when no bearer token is presented.
	WorkspaceUserID string
	DefaultLocale   string
	GeoIPDBPath     string

	SettingsBackend string
	SettingsDir     string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	GeminiBaseURL     string
	VideoPollInterval time.Duration
	MusicPollInterval time.Duration

	ExportDir         string
	ExportS3Bucket    string
	ExportS3Region    string
	ExportS3Endpoint  string
	ExportS3PathStyle bool

	CORSAllowedOrigins []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		WorkspaceUserID: getEnv("WORKSPACE_USER_ID", "workspace"),
		DefaultLocale:   getEnv("DEFAULT_LOCALE", "en"),
		GeoIPDBPath:     os.Getenv("GEOIP_DB_PATH"),

		SettingsBackend: strings.ToLower(getEnv("SETTINGS_BACKEND", SettingsBackendFile)),
		SettingsDir:     getEnv("SETTINGS_DIR", "./data/settings"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         getEnvInt("REDIS_DB", 0),

		GeminiBaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		VideoPollInterval: getEnvDuration("VIDEO_POLL_INTERVAL", 10*time.Second),
		MusicPollInterval: getEnvDuration("MUSIC_POLL_INTERVAL", 2*time.Second),

		ExportDir:         getEnv("EXPORT_DIR", "./data/exports"),
		ExportS3Bucket:    os.Getenv("EXPORT_S3_BUCKET"),
		ExportS3Region:    getEnv("EXPORT_S3_REGION", "us-east-1"),
		ExportS3Endpoint:  os.Getenv("EXPORT_S3_ENDPOINT"),
		ExportS3PathStyle: getEnvBool("EXPORT_S3_PATH_STYLE", false),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	switch cfg.SettingsBackend {
	case SettingsBackendFile, SettingsBackendRedis:
	default:
		return nil, fmt.Errorf("SETTINGS_BACKEND must be %q or %q, got %q", SettingsBackendFile, SettingsBackendRedis, cfg.SettingsBackend)
	}

	if cfg.VideoPollInterval <= 0 || cfg.MusicPollInterval <= 0 {
		return nil, fmt.Errorf("poll intervals must be positive")
	}

	if cfg.AppEnv == "production" && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	return cfg, nil
}

// PersistenceEnabled reports whether history is written to Postgres.
func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("2s") or bare seconds ("2").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

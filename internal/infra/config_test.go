package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SETTINGS_BACKEND", "")
	t.Setenv("VIDEO_POLL_INTERVAL", "")
	t.Setenv("MUSIC_POLL_INTERVAL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PersistenceEnabled() {
		t.Fatalf("PersistenceEnabled = true without DATABASE_URL")
	}
	if cfg.SettingsBackend != SettingsBackendFile {
		t.Fatalf("SettingsBackend = %q, want %q", cfg.SettingsBackend, SettingsBackendFile)
	}
	if cfg.VideoPollInterval != 10*time.Second || cfg.MusicPollInterval != 2*time.Second {
		t.Fatalf("poll intervals = %s/%s, want 10s/2s", cfg.VideoPollInterval, cfg.MusicPollInterval)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("CORSAllowedOrigins = %#v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigParsesDurationsAndLists(t *testing.T) {
	t.Setenv("VIDEO_POLL_INTERVAL", "15s")
	t.Setenv("MUSIC_POLL_INTERVAL", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("EXPORT_S3_PATH_STYLE", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.VideoPollInterval != 15*time.Second {
		t.Fatalf("VideoPollInterval = %s, want 15s", cfg.VideoPollInterval)
	}
	if cfg.MusicPollInterval != 3*time.Second {
		t.Fatalf("MusicPollInterval = %s, want 3s", cfg.MusicPollInterval)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.CORSAllowedOrigins) != len(want) {
		t.Fatalf("CORSAllowedOrigins = %#v, want %#v", cfg.CORSAllowedOrigins, want)
	}
	for i := range want {
		if cfg.CORSAllowedOrigins[i] != want[i] {
			t.Fatalf("CORSAllowedOrigins[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], want[i])
		}
	}
	if !cfg.ExportS3PathStyle {
		t.Fatalf("ExportS3PathStyle = false, want true")
	}
}

func TestLoadConfigRejectsUnknownSettingsBackend(t *testing.T) {
	t.Setenv("SETTINGS_BACKEND", "etcd")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig accepted SETTINGS_BACKEND=etcd")
	}
}

func TestLoadConfigRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig accepted production without JWT_SECRET")
	}

	t.Setenv("JWT_SECRET", "s3cret")
	if _, err := LoadConfig(); err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
}

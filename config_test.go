package main

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DOWNLOADS_DIR", "ALLOWED_DOMAINS", "MAX_FILE_SIZE",
		"CONVERT_TIMEOUT", "COLLECTION_TIMEOUT", "SWEEP_INTERVAL",
		"FILE_GRACE", "LOG_LEVEL", "RATE_INFO_PER_MINUTE",
		"RATE_DOWNLOAD_PER_MINUTE", "CORS_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.MaxFileSize != 100<<20 {
		t.Errorf("MaxFileSize = %d", cfg.MaxFileSize)
	}
	if len(cfg.AllowedHosts) != 3 {
		t.Errorf("AllowedHosts = %v", cfg.AllowedHosts)
	}
	if cfg.TrackTimeout != 5*time.Minute || cfg.CollectionTimeout != 20*time.Minute {
		t.Errorf("timeouts = %v / %v", cfg.TrackTimeout, cfg.CollectionTimeout)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if cfg.InfoPerMinute != 10 || cfg.DownloadPerMinute != 5 {
		t.Errorf("rate limits = %d / %d", cfg.InfoPerMinute, cfg.DownloadPerMinute)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_DOMAINS", "soundcloud.com, m.soundcloud.com")
	t.Setenv("MAX_FILE_SIZE", "1048576")
	t.Setenv("CONVERT_TIMEOUT", "90s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if len(cfg.AllowedHosts) != 2 || cfg.AllowedHosts[1] != "m.soundcloud.com" {
		t.Errorf("AllowedHosts = %v", cfg.AllowedHosts)
	}
	if cfg.MaxFileSize != 1<<20 {
		t.Errorf("MaxFileSize = %d", cfg.MaxFileSize)
	}
	if cfg.TrackTimeout != 90*time.Second {
		t.Errorf("TrackTimeout = %v", cfg.TrackTimeout)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
}

func TestLoadConfig_RejectsBadValues(t *testing.T) {
	tests := []struct{ key, value string }{
		{"MAX_FILE_SIZE", "not-a-number"},
		{"MAX_FILE_SIZE", "-1"},
		{"CONVERT_TIMEOUT", "soon"},
		{"FILE_GRACE", "-5m"},
		{"LOG_LEVEL", "verbose"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := loadConfig(); err == nil {
				t.Errorf("%s=%q accepted", tt.key, tt.value)
			}
		})
	}
}

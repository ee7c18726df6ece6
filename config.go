package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"soundload/pkg/soundcloud"
)

// config holds every deployment knob, all sourced from the environment.
type config struct {
	Port         string
	DownloadDir  string
	MaxFileSize  int64
	AllowedHosts []string
	LogLevel     slog.Level

	TrackTimeout      time.Duration
	CollectionTimeout time.Duration

	SweepInterval time.Duration
	FileGrace     time.Duration

	InfoPerMinute     int
	DownloadPerMinute int

	CORSOrigins []string
}

func loadConfig() (*config, error) {
	cfg := &config{
		Port:              envString("PORT", "8080"),
		DownloadDir:       envString("DOWNLOADS_DIR", "./downloads"),
		AllowedHosts:      envList("ALLOWED_DOMAINS", soundcloud.DefaultHosts),
		TrackTimeout:      5 * time.Minute,
		CollectionTimeout: 20 * time.Minute,
		SweepInterval:     10 * time.Minute,
		FileGrace:         time.Hour,
		InfoPerMinute:     envInt("RATE_INFO_PER_MINUTE", 10),
		DownloadPerMinute: envInt("RATE_DOWNLOAD_PER_MINUTE", 5),
		CORSOrigins:       envList("CORS_ORIGINS", []string{"*"}),
	}

	size, err := envInt64("MAX_FILE_SIZE", 100<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxFileSize = size

	for key, dst := range map[string]*time.Duration{
		"CONVERT_TIMEOUT":    &cfg.TrackTimeout,
		"COLLECTION_TIMEOUT": &cfg.CollectionTimeout,
		"SWEEP_INTERVAL":     &cfg.SweepInterval,
		"FILE_GRACE":         &cfg.FileGrace,
	} {
		if err := envDuration(key, dst); err != nil {
			return nil, err
		}
	}

	level, err := parseLogLevel(envString("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	return cfg, nil
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

func envInt64(key string, fallback int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s value %q", key, raw)
	}
	return v, nil
}

func envDuration(key string, dst *time.Duration) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fmt.Errorf("invalid %s value %q", key, raw)
	}
	*dst = d
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL value %q", s)
	}
}

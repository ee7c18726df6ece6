// soundload converts SoundCloud tracks to downloadable audio files over a
// small HTTP API. Extraction and transcoding are delegated to yt-dlp and
// ffmpeg; this binary validates input, orchestrates the tools and streams
// results back.
package main

import (
	"context"
	"log/slog"
	"os"

	"soundload/pkg/downloader"
	"soundload/pkg/workspace"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	ws, err := workspace.NewManager(cfg.DownloadDir, cfg.FileGrace, log)
	if err != nil {
		log.Error("failed to prepare download directory", "dir", cfg.DownloadDir, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := downloader.Bootstrap(ctx, log); err != nil {
		// The health endpoint will keep reporting the missing tools; the
		// server still starts so deployments can diagnose over HTTP.
		log.Warn("dependency bootstrap failed, conversions will not work", "error", err)
	}

	ws.StartSweeper(ctx, cfg.SweepInterval)

	conv := downloader.NewConverter(ws, log, downloader.Options{
		AllowedHosts:      cfg.AllowedHosts,
		MaxFileSize:       cfg.MaxFileSize,
		TrackTimeout:      cfg.TrackTimeout,
		CollectionTimeout: cfg.CollectionTimeout,
	})

	srv := newServer(cfg, log, ws, conv)
	router := srv.routes()

	log.Info("starting soundload server",
		"port", cfg.Port,
		"downloads_dir", ws.Root(),
		"max_file_size", cfg.MaxFileSize,
	)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

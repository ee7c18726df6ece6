package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/lrstanley/go-ytdlp"

	"soundload/pkg/internal/installer"
)

var (
	bootstrapMu      sync.Mutex
	ytdlpProvisioned bool
)

// Bootstrap makes sure yt-dlp and ffmpeg are usable, installing them locally
// when they are not on PATH. yt-dlp comes through go-ytdlp's own installer;
// ffmpeg through the static-build installer. Safe to call more than once.
func Bootstrap(ctx context.Context, log *slog.Logger) error {
	bootstrapMu.Lock()
	defer bootstrapMu.Unlock()

	if log == nil {
		log = slog.Default()
	}

	if _, err := exec.LookPath("yt-dlp"); err != nil && !ytdlpProvisioned {
		log.Info("yt-dlp not on PATH, installing locally")
		if _, err := ytdlp.Install(ctx, nil); err != nil {
			return fmt.Errorf("installing yt-dlp: %w", err)
		}
	}
	ytdlpProvisioned = true

	if _, err := exec.LookPath("ffmpeg"); err != nil {
		if _, err := installer.FFmpegPath(); err != nil {
			log.Info("ffmpeg not on PATH, installing locally")
			path, err := installer.InstallFFmpeg(func(msg string) { log.Debug(msg) })
			if err != nil {
				return fmt.Errorf("installing ffmpeg: %w", err)
			}
			log.Info("installed ffmpeg", "path", path)
		}
	}
	return nil
}

// CheckDependencies reports which of the required external tools are missing,
// for the health endpoint. An empty slice means the service can convert.
func CheckDependencies() []string {
	var missing []string

	if _, err := exec.LookPath("yt-dlp"); err != nil && !ytdlpInstalledLocally() {
		missing = append(missing, "yt-dlp")
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		if _, err := installer.FFmpegPath(); err != nil {
			missing = append(missing, "ffmpeg")
		}
	}
	return missing
}

func ytdlpInstalledLocally() bool {
	bootstrapMu.Lock()
	defer bootstrapMu.Unlock()
	return ytdlpProvisioned
}

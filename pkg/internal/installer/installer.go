// Package installer fetches a static ffmpeg build into the service's local
// bin directory when no system ffmpeg is available. yt-dlp itself is managed
// by the go-ytdlp bindings; ffmpeg is the one tool we have to provision
// ourselves.
package installer

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ulikunitz/xz"
)

// BinDir returns the directory ffmpeg is installed into, creating it if
// needed.
func BinDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	binDir := filepath.Join(homeDir, ".soundload", "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create bin directory: %w", err)
	}
	return binDir, nil
}

// FFmpegPath returns the path of a locally installed ffmpeg, or an error when
// none has been installed yet.
func FFmpegPath() (string, error) {
	binDir, err := BinDir()
	if err != nil {
		return "", err
	}

	path := filepath.Join(binDir, executableName())
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("ffmpeg not found at %s", path)
	}
	return path, nil
}

func executableName() string {
	if runtime.GOOS == "windows" {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}

// InstallFFmpeg downloads a static ffmpeg build for the current platform into
// BinDir and returns its path. progressFn, when non-nil, receives human
// readable status lines.
func InstallFFmpeg(progressFn func(string)) (string, error) {
	binDir, err := BinDir()
	if err != nil {
		return "", err
	}

	var downloadURL, archiveType string
	switch runtime.GOOS {
	case "linux":
		downloadURL = "https://johnvansickle.com/ffmpeg/releases/ffmpeg-release-amd64-static.tar.xz"
		archiveType = "tar.xz"
	case "darwin":
		downloadURL = "https://evermeet.cx/ffmpeg/getrelease/ffmpeg/zip"
		archiveType = "zip"
	case "windows":
		downloadURL = "https://github.com/BtbN/FFmpeg-Builds/releases/download/latest/ffmpeg-master-latest-win64-gpl.zip"
		archiveType = "zip"
	default:
		return "", fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}

	if progressFn != nil {
		progressFn(fmt.Sprintf("downloading ffmpeg from %s", downloadURL))
	}

	tmpFile, err := os.CreateTemp("", "soundload-ffmpeg-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	if err := downloadFile(downloadURL, tmpPath, progressFn); err != nil {
		return "", fmt.Errorf("failed to download ffmpeg: %w", err)
	}

	if progressFn != nil {
		progressFn("extracting ffmpeg")
	}

	destPath := filepath.Join(binDir, executableName())
	switch archiveType {
	case "zip":
		err = extractFromZip(tmpPath, destPath)
	default:
		err = extractFromTar(tmpPath, destPath, archiveType)
	}
	if err != nil {
		return "", fmt.Errorf("failed to extract ffmpeg: %w", err)
	}

	if _, err := os.Stat(destPath); err != nil {
		return "", fmt.Errorf("ffmpeg installation verification failed: %w", err)
	}
	if progressFn != nil {
		progressFn("ffmpeg installed at " + destPath)
	}
	return destPath, nil
}

func downloadFile(url, dest string, progressFn func(string)) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	buf := make([]byte, 32*1024)
	var downloaded int64
	total := resp.ContentLength

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return writeErr
			}
			downloaded += int64(n)
			if progressFn != nil && total > 0 {
				progressFn(fmt.Sprintf("downloading ffmpeg: %.0f%%", float64(downloaded)/float64(total)*100))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return readErr
		}
	}
	return nil
}

// extractFromZip pulls the ffmpeg binary out of a release zip, ignoring docs
// and auxiliary tools shipped alongside it.
func extractFromZip(zipPath, destPath string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	want := executableName()
	for _, f := range r.File {
		if filepath.Base(f.Name) != want || strings.Contains(f.Name, "doc") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = writeExecutable(destPath, rc)
		rc.Close()
		return err
	}
	return fmt.Errorf("ffmpeg binary not found in archive")
}

// extractFromTar handles the tar.gz and tar.xz layouts used by the static
// Linux builds.
func extractFromTar(tarPath, destPath, archiveType string) error {
	file, err := os.Open(tarPath)
	if err != nil {
		return err
	}
	defer file.Close()

	var reader io.Reader = file
	switch archiveType {
	case "tar.gz":
		gzr, err := gzip.NewReader(file)
		if err != nil {
			return err
		}
		defer gzr.Close()
		reader = gzr
	case "tar.xz":
		xzr, err := xz.NewReader(file)
		if err != nil {
			return err
		}
		reader = xzr
	}

	tr := tar.NewReader(reader)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		if filepath.Base(header.Name) != "ffmpeg" {
			continue
		}
		return writeExecutable(destPath, tr)
	}
	return fmt.Errorf("ffmpeg binary not found in archive")
}

func writeExecutable(destPath string, src io.Reader) error {
	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return err
	}
	return nil
}

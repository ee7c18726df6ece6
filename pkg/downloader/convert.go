// Package downloader orchestrates extraction and transcoding of SoundCloud
// audio into a per-request workspace. It shells out to yt-dlp (which in turn
// drives ffmpeg for the audio conversion) through the go-ytdlp bindings.
package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"soundload/pkg/soundcloud"
	"soundload/pkg/workspace"
)

// Request describes one conversion job.
type Request struct {
	URL         string
	Format      Format
	QualityKbps int  // only consulted when Format is mp3
	Collection  bool // multi-track set link; widens the timeout ceiling
}

// Result is a finished conversion. FilePath lives inside Workspace and
// disappears when the workspace is released; the caller owns that cleanup
// because it still has to stream the file out first.
type Result struct {
	FilePath          string
	SuggestedFilename string
	MIMEType          string
	Size              int64
	Workspace         *workspace.Workspace
}

// Converter runs conversion jobs. All fields are fixed at construction; a
// Converter is safe for concurrent use.
type Converter struct {
	hosts             []string
	maxFileSize       int64
	trackTimeout      time.Duration
	collectionTimeout time.Duration
	workspaces        *workspace.Manager
	log               *slog.Logger
}

// Options bundles the Converter knobs that come from deployment config.
type Options struct {
	AllowedHosts      []string
	MaxFileSize       int64
	TrackTimeout      time.Duration
	CollectionTimeout time.Duration
}

// NewConverter builds a Converter writing into ws. Zero option fields get
// conservative defaults.
func NewConverter(ws *workspace.Manager, log *slog.Logger, opts Options) *Converter {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = 100 << 20
	}
	if opts.TrackTimeout <= 0 {
		opts.TrackTimeout = 5 * time.Minute
	}
	if opts.CollectionTimeout <= 0 {
		opts.CollectionTimeout = 4 * opts.TrackTimeout
	}
	if len(opts.AllowedHosts) == 0 {
		opts.AllowedHosts = soundcloud.DefaultHosts
	}
	if log == nil {
		log = slog.Default()
	}
	return &Converter{
		hosts:             opts.AllowedHosts,
		maxFileSize:       opts.MaxFileSize,
		trackTimeout:      opts.TrackTimeout,
		collectionTimeout: opts.CollectionTimeout,
		workspaces:        ws,
		log:               log,
	}
}

// Timeout returns the processing ceiling applied to a request, which is
// longer for collection links.
func (c *Converter) Timeout(collection bool) time.Duration {
	if collection {
		return c.collectionTimeout
	}
	return c.trackTimeout
}

// Convert fetches the track behind req.URL and transcodes it into the
// requested format inside a fresh workspace. On success the workspace is
// handed to the caller through the Result and must be released once the file
// has been streamed; on failure it is already gone.
//
// Cancelling ctx (client disconnect) kills the underlying tool process and
// cleans up any partial output.
func (c *Converter) Convert(ctx context.Context, req Request) (*Result, error) {
	// The HTTP layer validates first; this re-check is the last line of
	// defense in case a caller skips it.
	if !soundcloud.IsSupported(req.URL, c.hosts) {
		return nil, &Error{Kind: KindInvalidInput, Msg: "URL must be from SoundCloud", Detail: "unsupported url reached converter: " + req.URL}
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout(req.Collection))
	defer cancel()

	ws, err := c.workspaces.Acquire()
	if err != nil {
		return nil, fmt.Errorf("acquiring workspace: %w", err)
	}
	delivered := false
	defer func() {
		if !delivered {
			if err := ws.Release(); err != nil {
				c.log.Warn("failed to release workspace after error", "id", ws.ID, "error", err)
			}
		}
	}()

	// Best effort: the title only feeds the suggested filename, so a preview
	// failure here must not fail the whole conversion.
	meta, err := c.FetchMetadata(ctx, req.URL)
	if err != nil {
		c.log.Warn("metadata fetch failed, using fallback filename", "url", req.URL, "error", err)
		meta = nil
	}

	start := time.Now()
	c.log.Info("starting conversion", "url", req.URL, "format", req.Format, "collection", req.Collection)

	cmd := ytdlp.New().
		ExtractAudio().
		AudioFormat(string(req.Format)).
		Output(ws.Path("%(title)s.%(ext)s")).
		NoPlaylist().
		NoWarnings().
		MaxFileSize(strconv.FormatInt(c.maxFileSize, 10))
	if req.Format == FormatMP3 {
		quality := req.QualityKbps
		if quality == 0 {
			quality = DefaultQualityKbps
		}
		cmd = cmd.AudioQuality(strconv.Itoa(quality))
	}

	res, err := cmd.Run(ctx, req.URL)
	if err != nil {
		stderr := ""
		if res != nil {
			stderr = res.Stderr
		}
		ce := classifyToolFailure(ctx, err, stderr)
		c.log.Error("conversion failed", "url", req.URL, "kind", ce.Kind.String(), "detail", ce.Detail)
		return nil, ce
	}

	path, err := c.locateOutput(ws, req.Format, res.Stdout, res.Stderr)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &Error{Kind: KindTranscodeFailure, Detail: "output vanished after conversion: " + err.Error()}
	}
	if info.Size() == 0 {
		return nil, &Error{Kind: KindTranscodeFailure, Detail: "conversion produced an empty file"}
	}
	if info.Size() > c.maxFileSize {
		return nil, &Error{Kind: KindResourceExhausted, Detail: fmt.Sprintf("output is %d bytes, cap is %d", info.Size(), c.maxFileSize)}
	}

	title := ""
	if meta != nil {
		title = meta.Title
	}
	if req.Format == FormatMP3 && meta != nil {
		if err := writeID3Tags(path, meta); err != nil {
			c.log.Warn("failed to embed id3 tags", "path", path, "error", err)
		}
	}

	c.log.Info("conversion completed", "url", req.URL, "size", info.Size(), "elapsed", time.Since(start).Round(time.Millisecond))

	delivered = true
	return &Result{
		FilePath:          path,
		SuggestedFilename: SuggestedFilename(title, req.Format),
		MIMEType:          req.Format.MIMEType(),
		Size:              info.Size(),
		Workspace:         ws,
	}, nil
}

// locateOutput finds the converted file in the workspace. yt-dlp names the
// file after the track title, so the directory is scanned for the requested
// extension; for collection links the first track (sorted by name) wins.
func (c *Converter) locateOutput(ws *workspace.Workspace, format Format, stdout, stderr string) (string, error) {
	entries, err := os.ReadDir(ws.Dir)
	if err != nil {
		return "", fmt.Errorf("reading workspace: %w", err)
	}

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), "."+format.Ext()) {
			matches = append(matches, entry.Name())
		}
	}
	if len(matches) == 0 {
		// yt-dlp exits zero when it skips a track over --max-filesize, so a
		// missing file needs its own classification pass.
		combined := stdout + "\n" + stderr
		if strings.Contains(strings.ToLower(combined), "larger than max-filesize") {
			return "", &Error{Kind: KindResourceExhausted, Detail: "track skipped: larger than configured max file size"}
		}
		return "", &Error{Kind: KindTranscodeFailure, Detail: "no output file found after conversion"}
	}

	sort.Strings(matches)
	return ws.Path(matches[0]), nil
}

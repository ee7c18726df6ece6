package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"soundload/pkg/disposition"
	"soundload/pkg/downloader"
	"soundload/pkg/progress"
	"soundload/pkg/ratelimit"
	"soundload/pkg/soundcloud"
	"soundload/pkg/workspace"
)

// server wires the HTTP surface to the conversion core. The convert,
// metadata and checkDeps fields are function values so handler tests can
// substitute them without touching the real tools.
type server struct {
	cfg        *config
	log        *slog.Logger
	workspaces *workspace.Manager

	infoLimiter     *ratelimit.Registry
	downloadLimiter *ratelimit.Registry

	convert   func(ctx context.Context, req downloader.Request) (*downloader.Result, error)
	metadata  func(ctx context.Context, url string) (*downloader.TrackMetadata, error)
	checkDeps func() []string
}

func newServer(cfg *config, log *slog.Logger, ws *workspace.Manager, conv *downloader.Converter) *server {
	return &server{
		cfg:             cfg,
		log:             log,
		workspaces:      ws,
		infoLimiter:     ratelimit.NewRegistry(cfg.InfoPerMinute, time.Minute),
		downloadLimiter: ratelimit.NewRegistry(cfg.DownloadPerMinute, time.Minute),
		convert:         conv.Convert,
		metadata:        conv.FetchMetadata,
		checkDeps:       downloader.CheckDependencies,
	}
}

func (s *server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.loggingMiddleware())

	corsCfg := cors.DefaultConfig()
	if len(s.cfg.CORSOrigins) == 1 && s.cfg.CORSOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.cfg.CORSOrigins
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Content-Type"}
	router.Use(cors.New(corsCfg))

	router.GET("/health", s.handleHealth)
	router.GET("/", s.handleIndex)
	router.GET("/progress", s.handleProgress)
	router.POST("/info", s.rateLimit(s.infoLimiter), s.handleInfo)
	router.POST("/", s.rateLimit(s.downloadLimiter), s.handleDownload)
	router.POST("/cleanup", s.handleCleanup)

	return router
}

func (s *server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
	}
}

func (s *server) rateLimit(reg *ratelimit.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !reg.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
		}
	}
}

func (s *server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "soundload",
		"formats": []string{"mp3", "wav", "aac"},
		"endpoints": gin.H{
			"download": "POST / (form fields: url, format, quality)",
			"info":     "POST /info (json: {url})",
			"progress": "GET /progress?elapsed_ms=&collection=",
			"health":   "GET /health",
		},
	})
}

func (s *server) handleHealth(c *gin.Context) {
	missing := s.checkDeps()
	if len(missing) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":               "unhealthy",
			"missing_dependencies": missing,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"timestamp":    time.Now().Format(time.RFC3339),
		"dependencies": []string{"yt-dlp", "ffmpeg"},
	})
}

type infoRequest struct {
	URL string `json:"url"`
}

func (s *server) handleInfo(c *gin.Context) {
	var req infoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}

	if !soundcloud.IsSupported(req.URL, s.cfg.AllowedHosts) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL must be from SoundCloud"})
		return
	}

	info, err := s.metadata(c.Request.Context(), req.URL)
	if err != nil {
		ce := downloader.AsError(err)
		s.log.Warn("metadata request failed", "url", req.URL, "error", err)
		c.JSON(ce.Kind.HTTPStatus(), gin.H{"error": ce.UserMessage()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"info":       info,
		"collection": soundcloud.IsCollection(req.URL),
	})
}

func (s *server) handleDownload(c *gin.Context) {
	rawURL, rawFormat, rawQuality := downloadParams(c)
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide a SoundCloud URL"})
		return
	}
	if !soundcloud.IsSupported(rawURL, s.cfg.AllowedHosts) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL must be from SoundCloud"})
		return
	}

	format, err := downloader.ParseFormat(rawFormat)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quality, err := downloader.ParseQuality(rawQuality, format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := downloader.Request{
		URL:         rawURL,
		Format:      format,
		QualityKbps: quality,
		Collection:  soundcloud.IsCollection(rawURL),
	}

	result, err := s.convert(c.Request.Context(), req)
	if err != nil {
		ce := downloader.AsError(err)
		s.log.Error("download request failed", "url", rawURL, "kind", ce.Kind.String(), "error", err)
		c.JSON(ce.Kind.HTTPStatus(), gin.H{"error": ce.UserMessage()})
		return
	}
	defer func() {
		if err := result.Workspace.Release(); err != nil {
			s.log.Warn("failed to release workspace after response", "error", err)
		}
	}()

	file, err := os.Open(result.FilePath)
	if err != nil {
		s.log.Error("failed to open converted file", "path", result.FilePath, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unexpected error occurred"})
		return
	}
	defer file.Close()

	c.DataFromReader(http.StatusOK, result.Size, result.MIMEType, file, map[string]string{
		"Content-Disposition": disposition.Attachment(result.SuggestedFilename),
	})
}

// downloadParams accepts both the browser form and JSON clients.
func downloadParams(c *gin.Context) (url, format, quality string) {
	if c.ContentType() == "application/json" {
		var body struct {
			URL     string `json:"url"`
			Format  string `json:"format"`
			Quality string `json:"quality"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			return "", "", ""
		}
		return strings.TrimSpace(body.URL), strings.TrimSpace(body.Format), strings.TrimSpace(body.Quality)
	}
	return strings.TrimSpace(c.PostForm("url")), strings.TrimSpace(c.PostForm("format")), strings.TrimSpace(c.PostForm("quality"))
}

func (s *server) handleProgress(c *gin.Context) {
	elapsedMs, err := strconv.ParseInt(c.DefaultQuery("elapsed_ms", "0"), 10, 64)
	if err != nil || elapsedMs < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "elapsed_ms must be a non-negative integer"})
		return
	}
	collection := c.Query("collection") == "true" || c.Query("collection") == "1"

	elapsed := time.Duration(elapsedMs) * time.Millisecond
	c.JSON(http.StatusOK, gin.H{
		"percent":    progress.EstimateAt(elapsed, collection),
		"message":    progress.MessageAt(elapsed, collection),
		"collection": collection,
	})
}

func (s *server) handleCleanup(c *gin.Context) {
	removed, err := s.workspaces.Sweep()
	if err != nil {
		s.log.Error("cleanup sweep failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cleanup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"cleaned_files": removed,
	})
}

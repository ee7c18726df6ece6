package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

// unknownField is the placeholder rendered for metadata the platform did not
// provide. Fields are never left blank.
const unknownField = "Unknown"

// TrackMetadata is the preview payload for a track: enough to confirm the
// link before committing to a download, never the audio itself.
type TrackMetadata struct {
	Title    string `json:"title"`
	Uploader string `json:"uploader"`
	Duration string `json:"duration"`
}

// metadataTimeout bounds the preview call independently of the much larger
// conversion ceiling.
const metadataTimeout = 30 * time.Second

// trackInfo is the subset of yt-dlp's --dump-json output we consume.
type trackInfo struct {
	Title          string  `json:"title"`
	Uploader       string  `json:"uploader"`
	Duration       float64 `json:"duration"`
	DurationString string  `json:"duration_string"`
}

// FetchMetadata retrieves title, uploader and duration for url without
// downloading any audio. All failure modes (network, private/unavailable
// track, malformed tool output) collapse into a SourceUnavailable error whose
// Detail distinguishes them for logs. The call is not retried; the caller
// decides whether to ask again.
func (c *Converter) FetchMetadata(ctx context.Context, url string) (*TrackMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	cmd := ytdlp.New().
		DumpJSON().
		NoPlaylist().
		NoWarnings()

	res, err := cmd.Run(ctx, url)
	if err != nil {
		stderr := ""
		if res != nil {
			stderr = res.Stderr
		}
		ce := classifyToolFailure(ctx, err, stderr)
		if ce.Kind == KindTranscodeFailure {
			// No transcoding happens here; an unrecognized tool failure on
			// the preview path is a fetch problem.
			ce = &Error{Kind: KindSourceUnavailable, Detail: ce.Detail}
		}
		return nil, fmt.Errorf("metadata fetch for %s: %w", url, ce)
	}

	// Collection links emit one JSON document per track; the first one is
	// enough for a preview.
	var info trackInfo
	if err := json.NewDecoder(strings.NewReader(res.Stdout)).Decode(&info); err != nil {
		return nil, fmt.Errorf("metadata fetch for %s: %w", url,
			&Error{Kind: KindSourceUnavailable, Detail: "malformed metadata payload: " + err.Error()})
	}

	return &TrackMetadata{
		Title:    orUnknown(info.Title),
		Uploader: orUnknown(info.Uploader),
		Duration: durationDisplay(info),
	}, nil
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return unknownField
	}
	return s
}

func durationDisplay(info trackInfo) string {
	if s := strings.TrimSpace(info.DurationString); s != "" {
		return s
	}
	if info.Duration <= 0 {
		return unknownField
	}

	total := int(info.Duration)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

package downloader

import (
	"fmt"
	"strconv"
)

// Format is a supported target audio container/codec.
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
	FormatAAC Format = "aac"
)

// DefaultQualityKbps is the mp3 bitrate used when the client does not ask
// for one.
const DefaultQualityKbps = 192

// AllowedQualitiesKbps are the only mp3 bitrates the service accepts.
// Out-of-set values are rejected, never clamped.
var AllowedQualitiesKbps = []int{128, 192, 256, 320}

// ParseFormat validates a client-supplied format value. An empty value
// defaults to mp3, matching the form's default selection.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "":
		return FormatMP3, nil
	case FormatMP3, FormatWAV, FormatAAC:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported audio format %q", s)
	}
}

// ParseQuality validates a client-supplied mp3 bitrate in kbps. Quality is
// only meaningful for mp3; supplying one for another format is an error so
// the client learns the knob has no effect.
func ParseQuality(s string, format Format) (int, error) {
	if s == "" {
		if format == FormatMP3 {
			return DefaultQualityKbps, nil
		}
		return 0, nil
	}
	if format != FormatMP3 {
		return 0, fmt.Errorf("quality only applies to mp3 output")
	}

	kbps, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid quality %q", s)
	}
	for _, allowed := range AllowedQualitiesKbps {
		if kbps == allowed {
			return kbps, nil
		}
	}
	return 0, fmt.Errorf("quality must be one of 128, 192, 256 or 320 kbps")
}

// MIMEType returns the standard media type for the format.
func (f Format) MIMEType() string {
	switch f {
	case FormatMP3:
		return "audio/mpeg"
	case FormatWAV:
		return "audio/wav"
	case FormatAAC:
		return "audio/aac"
	default:
		return "application/octet-stream"
	}
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	return string(f)
}

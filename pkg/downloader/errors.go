package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind partitions conversion failures into the categories clients are told
// about. Each kind maps to one generic user-facing message and one HTTP
// status; tool output and other internals stay in Detail, which is only ever
// logged.
type Kind int

const (
	KindInvalidInput Kind = iota
	KindSourceUnavailable
	KindTranscodeFailure
	KindResourceExhausted
	KindTimeout
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindSourceUnavailable:
		return "source_unavailable"
	case KindTranscodeFailure:
		return "transcode_failure"
	case KindResourceExhausted:
		return "resource_exhausted"
	case KindTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

// HTTPStatus returns the response status for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindSourceUnavailable:
		return http.StatusBadGateway
	case KindResourceExhausted:
		return http.StatusRequestEntityTooLarge
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified conversion failure. Msg, when set, overrides the
// kind's default user-facing message; Detail is internal context for logs and
// must never be sent to a client.
type Error struct {
	Kind   Kind
	Msg    string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return e.Kind.String()
}

// UserMessage returns the client-safe description of the failure.
func (e *Error) UserMessage() string {
	if e.Msg != "" {
		return e.Msg
	}
	switch e.Kind {
	case KindInvalidInput:
		return "Invalid request"
	case KindSourceUnavailable:
		return "Could not retrieve track. It may be private or unavailable."
	case KindTranscodeFailure:
		return "Audio conversion failed. Please try again."
	case KindResourceExhausted:
		return "Track is too large to convert. Try a smaller item."
	case KindTimeout:
		return "Conversion took too long and was cancelled. Try again later or use a smaller item."
	default:
		return "An unexpected error occurred"
	}
}

// AsError extracts a classified *Error from err, wrapping unclassified
// failures as internal.
func AsError(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return &Error{Kind: KindInternal, Detail: err.Error()}
}

// classifyToolFailure maps a failed extraction/transcode run to an error
// kind. The tool's stderr is the only signal available; the original phrases
// come from yt-dlp and are stable enough to match on.
func classifyToolFailure(ctx context.Context, err error, stderr string) *Error {
	if ctx.Err() == context.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Detail: "processing deadline exceeded"}
	}
	if ctx.Err() == context.Canceled || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindInternal, Detail: "request cancelled by client"}
	}

	lower := strings.ToLower(stderr)
	if err != nil {
		lower += " " + strings.ToLower(err.Error())
	}

	switch {
	case strings.Contains(lower, "private"),
		strings.Contains(lower, "not available"),
		strings.Contains(lower, "unavailable"),
		strings.Contains(lower, "404"),
		strings.Contains(lower, "unsupported url"),
		strings.Contains(lower, "unable to download webpage"):
		return &Error{Kind: KindSourceUnavailable, Detail: firstLine(stderr)}
	case strings.Contains(lower, "larger than max-filesize"),
		strings.Contains(lower, "exceeds maximum file size"):
		return &Error{Kind: KindResourceExhausted, Detail: firstLine(stderr)}
	default:
		detail := firstLine(stderr)
		if detail == "" && err != nil {
			detail = err.Error()
		}
		return &Error{Kind: KindTranscodeFailure, Detail: detail}
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

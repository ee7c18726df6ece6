package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestClassifyToolFailure(t *testing.T) {
	ctx := context.Background()
	toolErr := errors.New("exit status 1")

	tests := []struct {
		name     string
		stderr   string
		expected Kind
	}{
		{"private track", "ERROR: [soundcloud] 123: Private video. Sign in if you've been granted access", KindSourceUnavailable},
		{"removed track", "ERROR: This track is not available in your country", KindSourceUnavailable},
		{"bad url", "ERROR: Unsupported URL: https://soundcloud.com/nope", KindSourceUnavailable},
		{"http 404", "ERROR: unable to download video data: HTTP Error 404", KindSourceUnavailable},
		{"oversized", "ERROR: file is larger than max-filesize", KindResourceExhausted},
		{"ffmpeg blowup", "ERROR: Postprocessing: audio conversion failed", KindTranscodeFailure},
		{"no stderr at all", "", KindTranscodeFailure},
	}

	for _, test := range tests {
		ce := classifyToolFailure(ctx, toolErr, test.stderr)
		if ce.Kind != test.expected {
			t.Errorf("%s: classified as %s, expected %s", test.name, ce.Kind, test.expected)
		}
	}
}

func TestClassifyToolFailure_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	ce := classifyToolFailure(ctx, ctx.Err(), "")
	if ce.Kind != KindTimeout {
		t.Errorf("deadline exceeded classified as %s, expected %s", ce.Kind, KindTimeout)
	}
}

func TestClassifyToolFailure_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ce := classifyToolFailure(ctx, ctx.Err(), "")
	if ce.Kind != KindInternal {
		t.Errorf("cancellation classified as %s, expected %s", ce.Kind, KindInternal)
	}
}

func TestUserMessage_NeverLeaksToolOutput(t *testing.T) {
	stderr := "ERROR: [soundcloud] secret internal traceback /usr/lib/yt_dlp/extractor.py:123"
	ce := classifyToolFailure(context.Background(), errors.New("exit status 1"), stderr)

	msg := ce.UserMessage()
	if strings.Contains(msg, "yt_dlp") || strings.Contains(msg, "traceback") || strings.Contains(msg, "ERROR:") {
		t.Errorf("user message leaks tool output: %q", msg)
	}
	// But the detail keeps it for logs.
	if !strings.Contains(ce.Detail, "secret internal traceback") {
		t.Errorf("detail lost the tool output: %q", ce.Detail)
	}
}

func TestKind_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected int
	}{
		{KindInvalidInput, http.StatusBadRequest},
		{KindSourceUnavailable, http.StatusBadGateway},
		{KindTranscodeFailure, http.StatusInternalServerError},
		{KindResourceExhausted, http.StatusRequestEntityTooLarge},
		{KindTimeout, http.StatusGatewayTimeout},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, test := range tests {
		if got := test.kind.HTTPStatus(); got != test.expected {
			t.Errorf("%s.HTTPStatus() = %d, expected %d", test.kind, got, test.expected)
		}
	}
}

func TestUserMessages_Distinct(t *testing.T) {
	kinds := []Kind{KindInvalidInput, KindSourceUnavailable, KindTranscodeFailure, KindResourceExhausted, KindTimeout}
	seen := make(map[string]Kind)
	for _, k := range kinds {
		msg := (&Error{Kind: k}).UserMessage()
		if prev, ok := seen[msg]; ok {
			t.Errorf("kinds %s and %s share user message %q", prev, k, msg)
		}
		seen[msg] = k
	}
}

func TestAsError(t *testing.T) {
	ce := &Error{Kind: KindTimeout, Detail: "d"}
	if got := AsError(fmt.Errorf("wrapping: %w", ce)); got.Kind != KindTimeout {
		t.Errorf("AsError lost the kind through wrapping: got %s", got.Kind)
	}
	if got := AsError(errors.New("plain")); got.Kind != KindInternal {
		t.Errorf("AsError(plain) = %s, expected %s", got.Kind, KindInternal)
	}
}

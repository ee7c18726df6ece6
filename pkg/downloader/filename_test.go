package downloader

import (
	"strings"
	"testing"
)

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"My Track", "My Track"},
		{"a/b\\c:d*e?f\"g<h>i|j", "a_b_c_d_e_f_g_h_i_j"},
		{"line\nbreak", "line_break"},
		{"  padded  ", "padded"},
		{"___", ""},
		{"...", ""},
		{"", ""},
		{"nuée ardente", "nuée ardente"},
	}

	for _, test := range tests {
		if got := SafeFilename(test.input); got != test.expected {
			t.Errorf("SafeFilename(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}

func TestSafeFilename_LengthCap(t *testing.T) {
	long := strings.Repeat("a", 500)
	got := SafeFilename(long)
	if len(got) > maxFilenameLength {
		t.Errorf("SafeFilename produced %d bytes, cap is %d", len(got), maxFilenameLength)
	}
}

func TestSuggestedFilename(t *testing.T) {
	tests := []struct {
		title    string
		format   Format
		expected string
	}{
		{"My Track", FormatMP3, "My Track.mp3"},
		{"a/b", FormatWAV, "a_b.wav"},
		{"", FormatMP3, "download.mp3"},
		{"Unknown", FormatAAC, "download.aac"}, // placeholder is not a title
		{"///", FormatMP3, "download.mp3"},
	}

	for _, test := range tests {
		if got := SuggestedFilename(test.title, test.format); got != test.expected {
			t.Errorf("SuggestedFilename(%q, %s) = %q, expected %q", test.title, test.format, got, test.expected)
		}
	}
}

package downloader

import "testing"

func TestOrUnknown(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Some Title", "Some Title"},
		{"", "Unknown"},
		{"   ", "Unknown"},
	}
	for _, test := range tests {
		if got := orUnknown(test.input); got != test.expected {
			t.Errorf("orUnknown(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}

func TestDurationDisplay(t *testing.T) {
	tests := []struct {
		name     string
		info     trackInfo
		expected string
	}{
		{"prefers tool string", trackInfo{Duration: 90, DurationString: "1:30"}, "1:30"},
		{"formats seconds", trackInfo{Duration: 215}, "3:35"},
		{"formats hours", trackInfo{Duration: 3725}, "1:02:05"},
		{"missing duration", trackInfo{}, "Unknown"},
		{"negative duration", trackInfo{Duration: -3}, "Unknown"},
	}
	for _, test := range tests {
		if got := durationDisplay(test.info); got != test.expected {
			t.Errorf("%s: durationDisplay() = %q, expected %q", test.name, got, test.expected)
		}
	}
}

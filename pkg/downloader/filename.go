package downloader

import (
	"fmt"
	"strings"
	"unicode"
)

const maxFilenameLength = 100

// SafeFilename strips characters that are unsafe in filenames on common
// filesystems and caps the length so track titles cannot produce unusable
// names. Returns an empty string when nothing usable is left.
func SafeFilename(name string) string {
	invalidChars := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", "\n", "\r", "\t"}
	result := name
	for _, char := range invalidChars {
		result = strings.ReplaceAll(result, char, "_")
	}

	// Drop remaining control characters outright.
	result = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, result)

	result = strings.TrimSpace(result)
	if len(result) > maxFilenameLength {
		result = result[:maxFilenameLength]
		result = strings.TrimSpace(strings.ToValidUTF8(result, ""))
	}

	// A name of only underscores or dots carries no information and some of
	// those strings are special on disk.
	if strings.Trim(result, "._ ") == "" {
		return ""
	}
	return result
}

// SuggestedFilename builds the download filename from a track title, falling
// back to a generic name when no title is available.
func SuggestedFilename(title string, format Format) string {
	safe := ""
	if title != "" && title != unknownField {
		safe = SafeFilename(title)
	}
	if safe == "" {
		return fmt.Sprintf("download.%s", format.Ext())
	}
	return fmt.Sprintf("%s.%s", safe, format.Ext())
}

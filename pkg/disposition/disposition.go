// Package disposition builds and parses Content-Disposition attachment
// headers. Titles routinely contain non-ASCII characters, so attachments
// always carry an ASCII fallback in the plain filename parameter and, when
// needed, the exact name in the RFC 5987 filename* parameter.
package disposition

import (
	"fmt"
	"mime"
	"strings"
	"unicode"
)

// Attachment returns a Content-Disposition header value for filename.
//
// A pure-ASCII name produces `attachment; filename="name"`. Otherwise the
// plain parameter carries an ASCII approximation (non-ASCII runes replaced
// with "_") and filename* carries the UTF-8 percent-encoded original, so
// non-ASCII titles are never silently dropped.
func Attachment(filename string) string {
	if isASCII(filename) {
		return fmt.Sprintf(`attachment; filename="%s"`, quoteEscape(filename))
	}

	fallback := asciiFallback(filename)
	encoded := percentEncode(filename)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, quoteEscape(fallback), encoded)
}

// ParseFilename extracts the filename from a Content-Disposition header
// value, preferring the RFC 5987 filename* parameter over the plain one.
func ParseFilename(header string) (string, error) {
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return "", fmt.Errorf("malformed content-disposition header: %w", err)
	}
	// mime.ParseMediaType decodes filename* into the "filename" key when
	// present, falling back to the plain parameter otherwise.
	name, ok := params["filename"]
	if !ok || name == "" {
		return "", fmt.Errorf("content-disposition header has no filename")
	}
	return name, nil
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func asciiFallback(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r > unicode.MaxASCII {
			b.WriteByte('_')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func quoteEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// percentEncode encodes s per RFC 5987 ext-value rules: attr-char stays
// literal, everything else becomes %XX byte escapes.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '!', '#', '$', '&', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

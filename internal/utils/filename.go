package utils

import (
	"path"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"|?*\x00-\x1f]`)
	// Whitespace characters to normalize
	whitespaceChars = regexp.MustCompile(`[\r\n\t]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// maxFilenameBytes leaves room under the common 255 byte limit.
const maxFilenameBytes = 200

// KnownBookExtensions are stripped when a file name stands in for a title.
// Longer suffixes come first.
var KnownBookExtensions = []string{
	".kepub.epub",
	".epub",
	".epub3",
}

// SanitizeFilename reduces a client supplied file name to its base name,
// removes characters that are invalid on common filesystems and collapses
// whitespace. The extension survives truncation. An empty result yields
// fallback.
func SanitizeFilename(filename, fallback string) string {
	// Clients on Windows send backslash separated paths.
	filename = path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if filename == "." || filename == "/" {
		filename = ""
	}

	filename = whitespaceChars.ReplaceAllString(filename, " ")
	filename = invalidFilenameChars.ReplaceAllString(filename, "")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)

	if len(filename) > maxFilenameBytes {
		ext := path.Ext(filename)
		if len(ext) > 16 {
			ext = ""
		}
		stem := truncateUTF8(strings.TrimSuffix(filename, ext), maxFilenameBytes-len(ext))
		filename = strings.TrimSpace(stem) + ext
	}

	if filename == "" || strings.Trim(filename, ".") == "" {
		return fallback
	}
	return filename
}

// TitleFromFilename derives a display title from an uploaded file name.
func TitleFromFilename(filename string) string {
	lower := strings.ToLower(filename)
	for _, ext := range KnownBookExtensions {
		if strings.HasSuffix(lower, ext) {
			return strings.TrimSpace(filename[:len(filename)-len(ext)])
		}
	}
	return strings.TrimSpace(filename)
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

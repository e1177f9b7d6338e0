package utils

import (
	"regexp"
	"strings"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	// Whitespace characters to normalize
	whitespaceChars = regexp.MustCompile(`[\r\n\t]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// EPUBExtension is the only book format the library ingests.
const EPUBExtension = ".epub"

// EPUBMediaType is the registered media type of EPUB containers.
const EPUBMediaType = "application/epub+zip"

// SanitizeFilename makes a title safe to use as a download file name.
func SanitizeFilename(filename string) string {
	filename = invalidFilenameChars.ReplaceAllString(filename, "")
	filename = whitespaceChars.ReplaceAllString(filename, " ")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)

	// Limit length (most filesystems support 255, but leave room for extension)
	if len(filename) > 200 {
		filename = strings.TrimSpace(filename[:200])
	}

	if filename == "" {
		filename = "Untitled"
	}

	return filename
}

// HasEPUBExtension reports whether name ends in .epub, ignoring case.
func HasEPUBExtension(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), EPUBExtension)
}

// IsEPUBMediaType reports whether contentType names an EPUB container.
// Parameters such as charset are ignored.
func IsEPUBMediaType(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), EPUBMediaType)
}

// TrimEPUBExtension strips a trailing .epub, ignoring case.
func TrimEPUBExtension(name string) string {
	if HasEPUBExtension(name) {
		return name[:len(name)-len(EPUBExtension)]
	}
	return name
}

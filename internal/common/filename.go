package common

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// disallowedFileNameChars matches everything outside the safe file name set.
var disallowedFileNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SafeFileName derives a storage-safe file name from an arbitrary title.
// Disallowed characters collapse to single underscores, the base name is
// capped at maxLen runes, and the original extension is preserved.
func SafeFileName(title string, ext string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 80
	}

	name := strings.TrimSpace(title)
	name = disallowedFileNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._-")
	if name == "" {
		name = "document"
	}

	if len(name) > maxLen {
		name = name[:maxLen]
		name = strings.Trim(name, "._-")
	}

	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "pdf"
	}

	return name + "." + ext
}

// SafeFolderName derives a storage subfolder name from an arbitrary label,
// using the same character set as SafeFileName but without an extension.
func SafeFolderName(label string) string {
	name := strings.TrimSpace(strings.ToLower(label))
	name = disallowedFileNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._-")
	if name == "" {
		name = "general"
	}
	if len(name) > 40 {
		name = strings.Trim(name[:40], "._-")
	}
	return name
}

// DisambiguateFileName appends a timestamp suffix to a file name, used when
// the derived name collides with an existing stored file.
func DisambiguateFileName(fileName string, now time.Time) string {
	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	return base + "_" + now.UTC().Format("20060102T150405") + ext
}

package uploads

import (
	"path"
	"regexp"
	"strings"
)

// Accepted audio extensions for uploaded recordings.
var validAudioExtensions = map[string]bool{
	".webm": true,
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".m4a":  true,
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	underscoreRuns      = regexp.MustCompile(`_{2,}`)
)

// SanitizeFilename replaces every character outside [a-zA-Z0-9._-] with an
// underscore, collapses underscore runs and truncates to 255 bytes. The
// result is never longer than the input.
func SanitizeFilename(filename string) string {
	s := unsafeFilenameChars.ReplaceAllString(filename, "_")
	s = underscoreRuns.ReplaceAllString(s, "_")
	if len(s) > 255 {
		s = s[:255]
	}
	return s
}

// IsValidAudioFile reports whether the filename carries one of the accepted
// audio extensions.
func IsValidAudioFile(filename string) bool {
	return validAudioExtensions[strings.ToLower(path.Ext(filename))]
}
